package server

import "errors"

// Errors returned by the HTTP handlers.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrDuplicateID  = errors.New("timer id already pending")
	ErrTimerMissing = errors.New("timer not found")
)
