package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bsm/redislock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLease struct {
	mu         sync.Mutex
	refreshErr error
	refreshes  int
	released   bool
}

func (f *fakeLease) Refresh(ctx context.Context, _ time.Duration, _ *redislock.Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return f.refreshErr
	}
	return ctx.Err()
}

func (f *fakeLease) Release(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
	return nil
}

func (f *fakeLease) state() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes, f.released
}

func TestHold_RefreshesWhileRunning(t *testing.T) {
	lease := &fakeLease{}

	err := hold(context.Background(), lease, 20*time.Millisecond, func(ctx context.Context) error {
		time.Sleep(60 * time.Millisecond)
		return ctx.Err()
	})

	require.NoError(t, err)
	refreshes, released := lease.state()
	assert.GreaterOrEqual(t, refreshes, 1)
	assert.True(t, released)
}

func TestHold_LostLeaseCancelsFn(t *testing.T) {
	expired := errors.New("lease expired")
	lease := &fakeLease{refreshErr: expired}

	start := time.Now()
	err := hold(context.Background(), lease, 20*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return nil
		}
	})

	assert.ErrorIs(t, err, ErrLockLost)
	assert.ErrorIs(t, err, expired)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	_, released := lease.state()
	assert.True(t, released)
}

func TestHold_ParentCancelIsNotLostLease(t *testing.T) {
	lease := &fakeLease{}
	ctx, cancel := context.WithCancel(context.Background())

	err := hold(ctx, lease, 20*time.Millisecond, func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		time.Sleep(30 * time.Millisecond)
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrLockLost)
}

func TestHold_ReturnsFnError(t *testing.T) {
	boom := errors.New("boom")
	lease := &fakeLease{}

	err := hold(context.Background(), lease, time.Minute, func(context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	_, released := lease.state()
	assert.True(t, released)
}
