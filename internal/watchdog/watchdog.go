// Package watchdog verifies the reconciliation loops are still making
// progress. Stalls are resolved by full restart, not in-process repair: on
// breach the daemon exits non-zero and the external supervisor restarts it.
package watchdog

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgLog "hoursync/pkg/log"
)

// ErrStalled is returned by Run when no progress happened within the stall
// timeout. main treats it as fatal (exit code 1).
var ErrStalled = errors.New("no progress within stall timeout")

// Watchdog tracks the last successful progress timestamp (a completed poll
// iteration or a successful write).
type Watchdog struct {
	l       pkgLog.Logger
	every   time.Duration
	timeout time.Duration

	mu   sync.Mutex
	last time.Time
}

// New creates a Watchdog; the clock starts at construction.
func New(l pkgLog.Logger, every, timeout time.Duration) *Watchdog {
	return &Watchdog{
		l:       l,
		every:   every,
		timeout: timeout,
		last:    time.Now(),
	}
}

// Beat records progress.
func (w *Watchdog) Beat() {
	w.mu.Lock()
	w.last = time.Now()
	w.mu.Unlock()
}

// LastProgress returns the most recent progress timestamp.
func (w *Watchdog) LastProgress() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Run blocks until the context is done (returns nil, graceful shutdown) or
// a stall is detected (returns ErrStalled).
func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stale := time.Since(w.LastProgress())
			if stale > w.timeout {
				w.l.Errorf(ctx, "watchdog: no progress for %s (timeout %s)", stale.Round(time.Second), w.timeout)
				return ErrStalled
			}
		}
	}
}
