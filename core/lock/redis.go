package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// RedisConfig tunes the Redis lock lease.
type RedisConfig struct {
	// TTL is the lease duration; it is refreshed at half-life while fn runs.
	TTL time.Duration
}

// RedisLocker uses redislock leases.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker on top of an existing Redis client.
func NewRedisLocker(rdb *redis.Client, cfg RedisConfig) *RedisLocker {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

// WithLock implements Locker.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lease, err := l.client.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return ErrNotObtained
	}
	if err != nil {
		return fmt.Errorf("failed to obtain redis lock %s: %w", key, err)
	}

	return hold(ctx, lease, l.ttl, fn)
}

// renewable is the part of *redislock.Lock that hold needs.
type renewable interface {
	Refresh(ctx context.Context, ttl time.Duration, opt *redislock.Options) error
	Release(ctx context.Context) error
}

// hold runs fn while refreshing the lease at half-life. A failed refresh
// cancels fn's context and the call reports ErrLockLost.
func hold(parent context.Context, lease renewable, ttl time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	done := make(chan struct{})
	refreshed := make(chan struct{})
	go func() {
		defer close(refreshed)
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := lease.Refresh(ctx, ttl, nil); err != nil {
					if parent.Err() == nil {
						cancel(fmt.Errorf("%w: %w", ErrLockLost, err))
					}
					return
				}
			}
		}
	}()

	defer func() {
		close(done)
		<-refreshed
		_ = lease.Release(context.WithoutCancel(ctx))
	}()

	err := fn(ctx)
	if cause := context.Cause(ctx); errors.Is(cause, ErrLockLost) {
		return errors.Join(cause, err)
	}
	return err
}
