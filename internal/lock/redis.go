package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLocker implements Locker on Redis with SET NX leases, so runs on
// different hosts sharing one store exclude each other. The TTL bounds how
// long a crashed run can block the next one.
type RedisLocker struct {
	client *redis.Client
	owner  string
}

// NewRedisLocker creates a Redis-backed locker and verifies connectivity.
func NewRedisLocker(client *redis.Client) (*RedisLocker, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisLocker{
		client: client,
		owner:  uuid.New().String(),
	}, nil
}

// Acquire takes the lease if free.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return ok, nil
}

// releaseScript deletes the key only if this process owns it, so an
// expired-and-reacquired lease is never released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

// Release frees the lease.
func (l *RedisLocker) Release(ctx context.Context, key string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{key}, l.owner).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// Ensure RedisLocker implements Locker
var _ Locker = (*RedisLocker)(nil)
