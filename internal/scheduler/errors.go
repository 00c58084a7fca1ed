package scheduler

import "errors"

var (
	ErrClosed          = errors.New("scheduler is closed")
	ErrUnknownProvider = errors.New("unknown provider")
)
