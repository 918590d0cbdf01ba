package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")
	ErrLockHeld        = errors.New("lock already held")
	ErrRateLimited     = errors.New("rate limited")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrBadSignature    = errors.New("invalid webhook signature")
	ErrBadPayload      = errors.New("malformed webhook payload")
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrContextDone     = errors.New("context cancelled")
)
