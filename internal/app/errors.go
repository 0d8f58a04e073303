package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted           = errors.New("service not started")
	ErrInvalidID            = errors.New("invalid id")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrBinderClosed         = errors.New("binder closed")
)
