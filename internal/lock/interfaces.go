package lock

import (
	"context"
	"time"
)

// Locker guards the store-wide run lease. The platform's call-rate ceiling
// is scoped to the whole store, so two concurrent runs against the same
// store would blow through it even if each paces itself correctly.
// This abstraction allows swapping between a memory lock (single process)
// and Redis (multiple processes / hosts) without changing the engine.
type Locker interface {
	// Acquire takes the lease if free. Returns false when another run
	// holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the lease.
	Release(ctx context.Context, key string) error
}

// LockError is a lock-layer failure.
type LockError string

func (e LockError) Error() string { return string(e) }

const (
	// ErrNotHeld indicates a release for a lease this process never took.
	ErrNotHeld LockError = "lock not held"
)
