package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ticketing-sync/core/broker"
	"ticketing-sync/core/httpclient"
	"ticketing-sync/core/lock"
	"ticketing-sync/feature/ticketing/lite"
	"ticketing-sync/feature/ticketing/models"
	"ticketing-sync/feature/ticketing/plan"
	"ticketing-sync/feature/ticketing/providers"
	"ticketing-sync/feature/ticketing/snapshot"
	"ticketing-sync/feature/ticketing/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSynchronizationInProgress is returned when another run holds the organization lock.
var ErrSynchronizationInProgress = errors.New("synchronization already in progress")

const (
	// LockNamespace prefixes organization lock keys.
	LockNamespace = "ticketing-sync"

	EventCompleted = "ticketing.synchronization.completed"
	EventFailed    = "ticketing.synchronization.failed"
)

// ClientSource returns the provider client of a connection.
// Invalidate drops a client whose credentials were rejected so the next run rebuilds it.
type ClientSource interface {
	Get(ctx context.Context, system models.TicketingSystem) (providers.Client, error)
	Invalidate(systemID string)
}

// Store is the persistence used by a run.
type Store interface {
	ListActiveTicketingSystems(ctx context.Context, organizationID string) ([]models.TicketingSystem, error)
	GetTicketingSystem(ctx context.Context, id string) (*models.TicketingSystem, error)
	LoadEventSeries(ctx context.Context, scope store.Scope, internalIDs []string) ([]models.EventSerie, error)
	Apply(ctx context.Context, system *models.TicketingSystem, p *plan.Plan, opts store.ApplyOptions) (*store.ApplyResult, error)
	RecordFailure(ctx context.Context, systemID string, cause error, at time.Time) error
}

// Deps are the collaborators of a Synchronizer. Archiver and Publisher are optional.
type Deps struct {
	Store     Store
	Locker    lock.Locker
	Clients   ClientSource
	Archiver  snapshot.Archiver
	Publisher broker.Publisher
	Logger    *zap.Logger
}

// Synchronizer reconciles an organization's connections with their providers.
type Synchronizer struct {
	cfg       Config
	store     Store
	locker    lock.Locker
	clients   ClientSource
	archiver  snapshot.Archiver
	publisher broker.Publisher
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New creates a Synchronizer.
func New(cfg Config, deps Deps) *Synchronizer {
	s := &Synchronizer{
		cfg:       cfg,
		store:     deps.Store,
		locker:    deps.Locker,
		clients:   deps.Clients,
		archiver:  deps.Archiver,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		tracer:    otel.Tracer("ticketing-sync/synchronizer"),
		now:       time.Now,
	}
	if s.archiver == nil {
		s.archiver = snapshot.Nop{}
	}
	if s.publisher == nil {
		s.publisher = broker.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Synchronize runs every active connection of an organization under the organization lock.
// Connections run independently: the report always lists all of them, and the returned error
// joins the failures.
func (s *Synchronizer) Synchronize(ctx context.Context, organizationID string) (*Report, error) {
	ctx, span := s.tracer.Start(ctx, "ticketing.synchronize", trace.WithAttributes(
		attribute.String("organization_id", organizationID),
	))
	defer span.End()

	report := &Report{OrganizationID: organizationID, StartedAt: s.now().UTC()}
	logger := s.logger.With(zap.String("organization_id", organizationID))

	err := s.locker.WithLock(ctx, lock.Key(LockNamespace, organizationID), func(ctx context.Context) error {
		systems, err := s.store.ListActiveTicketingSystems(ctx, organizationID)
		if err != nil {
			return err
		}
		logger.Debug("Synchronizing connections", zap.Int("connections", len(systems)))

		report.Connections = make([]ConnectionReport, len(systems))
		errs := make([]error, len(systems))

		var g errgroup.Group
		g.SetLimit(s.cfg.parallelism())
		for i, system := range systems {
			g.Go(func() error {
				report.Connections[i], errs[i] = s.synchronizeConnection(ctx, system)
				return nil
			})
		}
		_ = g.Wait()

		return errors.Join(errs...)
	})
	report.FinishedAt = s.now().UTC()

	if errors.Is(err, lock.ErrNotObtained) {
		logger.Info("Synchronization already in progress")
		span.SetStatus(codes.Error, "in progress")
		return nil, ErrSynchronizationInProgress
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "connections failed")
		logger.Warn("Synchronization finished with errors", zap.Int("failed", report.Failed()), zap.Int("connections", len(report.Connections)), zap.Error(err))
		if report.Connections == nil {
			return nil, err
		}
		return report, err
	}

	logger.Info("Synchronization finished", zap.Int("connections", len(report.Connections)))
	return report, nil
}

// synchronizeConnection runs one connection: fetch, diff, then apply in a short transaction.
// No remote call happens inside the transaction.
func (s *Synchronizer) synchronizeConnection(ctx context.Context, system models.TicketingSystem) (ConnectionReport, error) {
	ctx, span := s.tracer.Start(ctx, "ticketing.synchronize_connection", trace.WithAttributes(
		attribute.String("ticketing_system_id", system.ID),
		attribute.String("provider", system.Name),
	))
	defer span.End()

	logger := s.logger.With(
		zap.String("organization_id", system.OrganizationID),
		zap.String("ticketing_system_id", system.ID),
		zap.String("provider", system.Name),
	)
	rep := ConnectionReport{
		TicketingSystemID: system.ID,
		Provider:          system.Name,
		Phase:             PhaseIdle,
		StartedAt:         s.now().UTC(),
	}

	enter := func(p Phase) {
		rep.Phase = p
		logger.Debug("Phase", zap.String("phase", string(p)))
	}

	fail := func(err error) (ConnectionReport, error) {
		at := s.now()
		rep.FailedAt = rep.Phase
		rep.Phase = PhaseFailed
		rep.Status = StatusFailed
		rep.Error = err.Error()
		rep.FinishedAt = at.UTC()

		span.RecordError(err)
		span.SetStatus(codes.Error, string(rep.FailedAt))
		logger.Warn("Connection synchronization failed", zap.String("phase", string(rep.FailedAt)), zap.Error(err))

		// the run's context may be canceled already; the failure must still be persisted
		detached := context.WithoutCancel(ctx)
		if rerr := s.store.RecordFailure(detached, system.ID, err, at); rerr != nil {
			logger.Error("Failed to record synchronization error", zap.Error(rerr))
		}
		s.publish(detached, logger, system, rep, at)

		return rep, fmt.Errorf("ticketing system %s (%s): %w", system.ID, system.Name, err)
	}

	enter(PhaseFetching)
	runStartedAt := s.now()
	since := runStartedAt.AddDate(0, -s.cfg.lookback(), 0)
	if system.LastSynchronizationAt != nil {
		since = *system.LastSynchronizationAt
	}

	client, err := s.clients.Get(ctx, system)
	if err != nil {
		return fail(err)
	}
	wrappers, err := client.GetEventsSeries(ctx, since, nil)
	if err != nil {
		if rejectedCredentials(err) {
			s.clients.Invalidate(system.ID)
		}
		return fail(err)
	}

	enter(PhaseDiffing)
	ids := make([]string, 0, len(wrappers))
	for _, w := range wrappers {
		if err := w.Validate(); err != nil {
			var assertion *lite.AssertionError
			if errors.As(err, &assertion) && assertion.Provider == "" {
				assertion.Provider = system.Name
			}
			return fail(err)
		}
		ids = append(ids, w.Serie.InternalID)
	}
	stored, err := s.store.LoadEventSeries(ctx, store.Scope{OrganizationID: system.OrganizationID, Provider: system.Name}, ids)
	if err != nil {
		return fail(err)
	}
	p, err := plan.Build(system.ID, stored, wrappers)
	if err != nil {
		return fail(err)
	}
	rep.Summary = p.Summary()

	enter(PhaseLocking)
	result, err := s.store.Apply(ctx, &system, p, store.ApplyOptions{
		Timeout:           s.cfg.TransactionTimeout(),
		ExpectedWatermark: system.LastSynchronizationAt,
		NewWatermark:      runStartedAt,
	})
	if err != nil {
		if !errors.Is(err, store.ErrStaleWatermark) {
			rep.Phase = PhaseApplying
		}
		return fail(err)
	}

	enter(PhaseCommitted)
	rep.Status = StatusSucceeded
	rep.Steps = result.Steps
	rep.FinishedAt = s.now().UTC()

	logger.Info("Connection synchronized",
		zap.Int("series", len(wrappers)),
		zap.Int("changes", rep.Summary.Total()),
		zap.Int("sales_added", rep.Summary.Sales.Added),
		zap.Int("sales_updated", rep.Summary.Sales.Updated),
		zap.Int("sales_removed", rep.Summary.Sales.Removed),
	)

	if err := s.archiver.Archive(ctx, system, runStartedAt, wrappers); err != nil {
		logger.Warn("Failed to archive snapshot", zap.Error(err))
	}
	s.publish(ctx, logger, system, rep, rep.FinishedAt)

	return rep, nil
}

// rejectedCredentials reports a 401 or 403 from the provider.
func rejectedCredentials(err error) bool {
	var status *httpclient.StatusError
	if !errors.As(err, &status) {
		return false
	}
	return status.StatusCode == http.StatusUnauthorized || status.StatusCode == http.StatusForbidden
}

func (s *Synchronizer) publish(ctx context.Context, logger *zap.Logger, system models.TicketingSystem, rep ConnectionReport, at time.Time) {
	eventType := EventCompleted
	if rep.Status == StatusFailed {
		eventType = EventFailed
	}
	outcome := Outcome{
		OrganizationID:    system.OrganizationID,
		TicketingSystemID: system.ID,
		Provider:          system.Name,
		Status:            rep.Status,
		Summary:           rep.Summary,
		Error:             rep.Error,
		OccurredAt:        at.UTC(),
	}
	if err := s.publisher.Publish(ctx, eventType, outcome); err != nil {
		logger.Warn("Failed to publish synchronization outcome", zap.String("event", eventType), zap.Error(err))
	}
}

// TestConnection checks the credentials of one connection.
func (s *Synchronizer) TestConnection(ctx context.Context, systemID string) (bool, error) {
	system, err := s.store.GetTicketingSystem(ctx, systemID)
	if err != nil {
		return false, err
	}
	client, err := s.clients.Get(ctx, *system)
	if err != nil {
		return false, err
	}
	return client.TestConnection(ctx), nil
}
