package scheduler

import "errors"

// Errors returned by the scheduler.
var (
	ErrClosed = errors.New("scheduler closed")
)
