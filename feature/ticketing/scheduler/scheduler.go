// Package scheduler synchronizes every organization periodically.
package scheduler

import (
	"context"
	"errors"
	"time"

	"ticketing-sync/feature/ticketing/synchronizer"

	"go.uber.org/zap"
)

// Organizations lists the organizations to synchronize.
type Organizations interface {
	ListOrganizationsWithActiveSystems(ctx context.Context) ([]string, error)
}

// Synchronizer runs one organization.
type Synchronizer interface {
	Synchronize(ctx context.Context, organizationID string) (*synchronizer.Report, error)
}

// Scheduler ticks at a fixed interval. A tick never retries: failures wait for the next tick.
type Scheduler struct {
	interval time.Duration
	orgs     Organizations
	sync     Synchronizer
	logger   *zap.Logger
}

// New creates a Scheduler. An interval <= 0 disables it.
func New(interval time.Duration, orgs Organizations, sync Synchronizer, logger *zap.Logger) *Scheduler {
	return &Scheduler{interval: interval, orgs: orgs, sync: sync, logger: logger}
}

// Enabled reports whether Run does anything.
func (s *Scheduler) Enabled() bool {
	return s.interval > 0
}

// Run ticks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.Enabled() {
		s.logger.Info("Scheduler disabled")
		return
	}

	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick synchronizes every organization once, one after the other.
func (s *Scheduler) Tick(ctx context.Context) {
	orgs, err := s.orgs.ListOrganizationsWithActiveSystems(ctx)
	if err != nil {
		s.logger.Warn("Failed to list organizations", zap.Error(err))
		return
	}

	for _, org := range orgs {
		if ctx.Err() != nil {
			return
		}

		_, err := s.sync.Synchronize(ctx, org)
		switch {
		case errors.Is(err, synchronizer.ErrSynchronizationInProgress):
			s.logger.Info("Skipping organization, synchronization already in progress", zap.String("organization_id", org))
		case err != nil:
			s.logger.Warn("Scheduled synchronization failed", zap.String("organization_id", org), zap.Error(err))
		}
	}
}
