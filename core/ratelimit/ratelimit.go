package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Quota allows Requests calls per Window.
type Quota struct {
	Requests int
	Window   time.Duration
}

// Limiter chains several quotas and an optional concurrency cap.
// A call proceeds only once every quota grants a token and a concurrency slot is free.
type Limiter struct {
	buckets []*rate.Limiter
	slots   *semaphore.Weighted
}

// New builds a limiter. concurrency <= 0 means unbounded.
// Buckets start full so a burst up to each quota is allowed immediately.
func New(concurrency int, quotas ...Quota) *Limiter {
	l := &Limiter{}
	for _, q := range quotas {
		if q.Requests <= 0 || q.Window <= 0 {
			continue
		}
		every := q.Window / time.Duration(q.Requests)
		l.buckets = append(l.buckets, rate.NewLimiter(rate.Every(every), q.Requests))
	}
	if concurrency > 0 {
		l.slots = semaphore.NewWeighted(int64(concurrency))
	}
	return l
}

// Unlimited returns a limiter that never waits.
func Unlimited() *Limiter {
	return &Limiter{}
}

// Wait blocks until the call may proceed. The returned release must be called when the call
// finishes; it is never nil, even on error.
func (l *Limiter) Wait(ctx context.Context) (func(), error) {
	noop := func() {}
	if l == nil {
		return noop, nil
	}

	if l.slots != nil {
		if err := l.slots.Acquire(ctx, 1); err != nil {
			return noop, fmt.Errorf("rate limiter: %w", err)
		}
	}
	release := noop
	if l.slots != nil {
		release = func() { l.slots.Release(1) }
	}

	for _, b := range l.buckets {
		if err := b.Wait(ctx); err != nil {
			release()
			return noop, fmt.Errorf("rate limiter: %w", err)
		}
	}

	return release, nil
}
