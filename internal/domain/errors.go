package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInvalidPosition     = errors.New("invalid position")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidUrgency      = errors.New("invalid urgency")
	ErrRateLimited         = errors.New("rate limited")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrLockHeld            = errors.New("lock already held")
	ErrProviderUnavailable = errors.New("provider unavailable")
)
