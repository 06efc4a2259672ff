package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketing-sync/core/database"
	"ticketing-sync/feature/ticketing/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrTicketingSystemNotFound is returned when no active connection has the requested id.
	ErrTicketingSystemNotFound = errors.New("ticketing system not found")
	// ErrStaleWatermark is returned when another run committed since this run started.
	ErrStaleWatermark = errors.New("synchronization watermark changed during the run")
)

// maxErrorLength bounds persisted error messages.
const maxErrorLength = 4000

// Store persists connections and the ticketing ledger.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a store on top of an open connection.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// DB exposes the underlying connection, for lock construction.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the ledger tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate ticketing tables: %w", err)
	}
	return nil
}

// CheckSchema reports columns the store needs that the database lacks.
func (s *Store) CheckSchema(ctx context.Context) (map[string][]string, error) {
	return database.MissingColumns(s.db.WithContext(ctx), models.Columns())
}

// ListActiveTicketingSystems returns the non-deleted connections of an organization.
func (s *Store) ListActiveTicketingSystems(ctx context.Context, organizationID string) ([]models.TicketingSystem, error) {
	var systems []models.TicketingSystem
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("name").Order("id").
		Find(&systems).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ticketing systems of %s: %w", organizationID, err)
	}
	return systems, nil
}

// GetTicketingSystem returns one non-deleted connection.
func (s *Store) GetTicketingSystem(ctx context.Context, id string) (*models.TicketingSystem, error) {
	var system models.TicketingSystem
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&system).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTicketingSystemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ticketing system %s: %w", id, err)
	}
	return &system, nil
}

// ListOrganizationsWithActiveSystems returns every organization owning a non-deleted connection.
func (s *Store) ListOrganizationsWithActiveSystems(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.TicketingSystem{}).
		Distinct().
		Order("organization_id").
		Pluck("organization_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return ids, nil
}

// Scope selects the stored slice comparable with one connection's remote data.
// Connections are matched by organization and provider name, deleted ones included, so a
// recreated connection keeps its history.
type Scope struct {
	OrganizationID string
	Provider       string
}

// LoadEventSeries loads the series with the given internal ids and their children.
func (s *Store) LoadEventSeries(ctx context.Context, scope Scope, internalIDs []string) ([]models.EventSerie, error) {
	if len(internalIDs) == 0 {
		return nil, nil
	}

	db := s.db.WithContext(ctx)
	owners := db.Unscoped().
		Model(&models.TicketingSystem{}).
		Select("id").
		Where("organization_id = ? AND name = ?", scope.OrganizationID, scope.Provider)

	var series []models.EventSerie
	for _, chunk := range chunks(internalIDs, 500) {
		var batch []models.EventSerie
		err := db.
			Where("ticketing_system_id IN (?)", owners).
			Where("internal_ticketing_system_id IN ?", chunk).
			Preload("TicketCategories").
			Preload("Events.Sales").
			Order("internal_ticketing_system_id").Order("id").
			Find(&batch).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load event series: %w", err)
		}
		series = append(series, batch...)
	}

	return series, nil
}

// RecordFailure stores the error of a failed run on the connection.
// The watermark is left untouched so the next run retries the same window.
func (s *Store) RecordFailure(ctx context.Context, systemID string, cause error, at time.Time) error {
	msg := cause.Error()
	if len(msg) > maxErrorLength {
		msg = msg[:maxErrorLength]
	}

	err := s.db.WithContext(ctx).
		Unscoped().
		Model(&models.TicketingSystem{}).
		Where("id = ?", systemID).
		Updates(map[string]any{
			"last_processing_error":    msg,
			"last_processing_error_at": at.UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record failure of %s: %w", systemID, err)
	}
	return nil
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	return append(out, items)
}
