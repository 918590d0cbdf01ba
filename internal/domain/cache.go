package domain

import (
	"context"
	"time"
)

// RateLimiter provides distributed rate limiting for outbound provider calls.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// LockManager provides distributed locking. Sync passes take a per-event
// lease through it so at most one sync runs per event across instances.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
