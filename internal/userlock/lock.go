// Package userlock serializes turn processing per user. Two messages
// from the same user must be handled in arrival order even when several
// workers poll the queue, so workers take a short-lived Redis lock keyed
// by user before running the dialogue engine.
package userlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("userlock: not acquired")

// Locker guards a critical section per user identifier.
type Locker interface {
	WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error
}

type redisUserLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisUserLocker creates a locker backed by a per-user Redis key.
// The TTL bounds how long a crashed worker can hold a user hostage.
func NewRedisUserLocker(client *redis.Client, ttl time.Duration) Locker {
	if client == nil {
		panic("userlock: redis client is required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisUserLocker{
		client: client,
		ttl:    ttl,
		retry:  50 * time.Millisecond,
	}
}

// WithUserLock acquires the user's lock, runs fn, and releases. When the
// lock is held by another worker it polls until acquired or ctx is done,
// which keeps same-user turns processed in the order they were queued.
func (l *redisUserLocker) WithUserLock(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:user:%s", userID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("userlock: acquire %s: %w", userID, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("userlock: %s: %w", userID, ErrNotAcquired)
		case <-time.After(l.retry):
		}
	}

	defer func() {
		_ = l.release(context.Background(), key, token)
	}()

	fnCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(fnCtx)
}

// Only the token holder may delete the key, otherwise a worker whose TTL
// expired mid-turn would release the next holder's lock.
var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisUserLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("userlock: release: %w", err)
	}
	return nil
}

// NoopLocker runs fn without locking, for single-worker deployments and
// tests.
type NoopLocker struct{}

func (NoopLocker) WithUserLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
