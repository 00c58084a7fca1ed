package retry

import (
	"context"
	"errors"
	"net"
	"time"
)

// ErrTimeout marks a remote call that exceeded its deadline. Provider
// clients wrap such failures with it so Do can tell transient timeouts
// apart from semantic errors.
var ErrTimeout = errors.New("remote call timed out")

// IsTimeout reports whether err is a transient timeout: either wrapped with
// ErrTimeout by a provider client, or a raw deadline/network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Do runs fn, retrying timeouts up to attempts times with linear backoff
// (baseDelay × attempt number). Non-timeout errors return immediately: they
// are caller or data errors, not transient. After exhausting attempts the
// last error is returned.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !IsTimeout(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(baseDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
