package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_AcquireRelease(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "run", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Acquire(ctx, "run", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "a held lease must not be re-acquired")

	require.NoError(t, l.Release(ctx, "run"))

	ok, err = l.Acquire(ctx, "run", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLocker_IndependentKeys(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "store-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Acquire(ctx, "store-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLocker_ExpiredLeaseReacquired(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "run", time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	ok, err = l.Acquire(ctx, "run", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "an expired lease is free for taking")
}

func TestMemoryLocker_ReleaseUnheld(t *testing.T) {
	l := NewMemoryLocker()
	err := l.Release(context.Background(), "never-acquired")
	assert.ErrorIs(t, err, ErrNotHeld)
}
