package lock

import (
	"context"
	"sync"
	"time"
)

// lease is a held lock with expiration.
type lease struct {
	expiresAt time.Time
}

func (l *lease) expired() bool {
	return time.Now().After(l.expiresAt)
}

// MemoryLocker is an in-process implementation of Locker.
// Sufficient when a single binary is the only thing talking to the store.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]*lease
}

// NewMemoryLocker creates a new in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{leases: make(map[string]*lease)}
}

// Acquire takes the lease if free.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.leases[key]; ok && !held.expired() {
		return false, nil
	}
	l.leases[key] = &lease{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// Release frees the lease.
func (l *MemoryLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.leases[key]; !ok {
		return ErrNotHeld
	}
	delete(l.leases, key)
	return nil
}

// Ensure MemoryLocker implements Locker
var _ Locker = (*MemoryLocker)(nil)
