package store

import (
	"context"
	"fmt"
	"time"

	"ticketing-sync/feature/ticketing/lite"
	"ticketing-sync/feature/ticketing/models"
	"ticketing-sync/feature/ticketing/plan"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 200

// ApplyOptions controls one apply transaction.
type ApplyOptions struct {
	// Timeout bounds the whole transaction.
	Timeout time.Duration
	// ExpectedWatermark is the watermark read when the run started.
	ExpectedWatermark *time.Time
	// NewWatermark is stored on commit.
	NewWatermark time.Time
}

// Step records one group of mutations in the order they were written.
type Step struct {
	Entity string `json:"entity"`
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// ApplyResult lists the applied steps.
type ApplyResult struct {
	Steps []Step `json:"steps"`
}

// Apply writes a plan in one transaction, then moves the watermark and clears the last error.
// The connection row is locked and its watermark compared to ExpectedWatermark first; a mismatch
// returns ErrStaleWatermark and nothing is written.
func (s *Store) Apply(ctx context.Context, system *models.TicketingSystem, p *plan.Plan, opts ApplyOptions) (*ApplyResult, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	result := &ApplyResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.TicketingSystem
		err := tx.Unscoped().
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", system.ID).
			First(&current).Error
		if err != nil {
			return fmt.Errorf("failed to lock ticketing system %s: %w", system.ID, err)
		}
		if !sameInstant(current.LastSynchronizationAt, opts.ExpectedWatermark) {
			return ErrStaleWatermark
		}

		a := &applier{tx: tx, systemID: system.ID, plan: p, index: cloneIndex(p.Index), result: result}
		if err := a.run(); err != nil {
			return err
		}

		return tx.Model(&models.TicketingSystem{}).
			Where("id = ?", system.ID).
			Updates(map[string]any{
				"last_synchronization_at":  opts.NewWatermark.UTC(),
				"last_processing_error":    nil,
				"last_processing_error_at": nil,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Applied synchronization plan",
		zap.String("ticketing_system_id", system.ID),
		zap.Any("steps", result.Steps),
	)
	return result, nil
}

type applier struct {
	tx       *gorm.DB
	systemID string
	plan     *plan.Plan
	index    plan.Index
	result   *ApplyResult
}

// run writes mutations in dependency order: sales removals first so no fact outlives its owner,
// sales creates last so every owner exists.
func (a *applier) run() error {
	steps := []func() error{
		a.removeSales,
		a.createSeries,
		a.updateSeries,
		a.createCategories,
		a.updateCategories,
		a.removeCategories,
		a.createEvents,
		a.updateEvents,
		a.removeEvents,
		a.createSales,
		a.updateSales,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (a *applier) record(entity, action string, count int) {
	if count == 0 {
		return
	}
	a.result.Steps = append(a.result.Steps, Step{Entity: entity, Action: action, Count: count})
}

func (a *applier) removeSales() error {
	ids := make([]string, 0, len(a.plan.Sales.Removed))
	for _, e := range a.plan.Sales.Removed {
		id, ok := a.index.Sales[e.Key]
		if !ok {
			return lite.Assertf("", "no stored row for removed sales %v", e.Key)
		}
		ids = append(ids, id)
	}
	if err := a.deleteByID(&models.EventCategoryTickets{}, ids); err != nil {
		return fmt.Errorf("failed to remove sales: %w", err)
	}
	a.record("sales", "remove", len(ids))
	return nil
}

func (a *applier) createSeries() error {
	rows := make([]models.EventSerie, 0, len(a.plan.Series.Added))
	for _, e := range a.plan.Series.Added {
		id := uuid.NewString()
		a.index.Series[e.Key] = id
		rows = append(rows, models.EventSerie{
			ID:                        id,
			TicketingSystemID:         a.systemID,
			InternalTicketingSystemID: e.Value.InternalID,
			Name:                      e.Value.Name,
			StartAt:                   e.Value.StartAt,
			EndAt:                     e.Value.EndAt,
			TaxRate:                   e.Value.TaxRate,
		})
	}
	if len(rows) > 0 {
		if err := a.tx.Omit(clause.Associations).CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("failed to create series: %w", err)
		}
	}
	a.record("series", "create", len(rows))
	return nil
}

func (a *applier) updateSeries() error {
	for _, c := range a.plan.Series.Updated {
		id, ok := a.index.Series[c.Key]
		if !ok {
			return lite.Assertf("", "no stored row for updated series %s", c.Key)
		}
		err := a.tx.Model(&models.EventSerie{}).Where("id = ?", id).Updates(map[string]any{
			"ticketing_system_id": a.systemID,
			"name":                c.Remote.Name,
			"start_at":            c.Remote.StartAt,
			"end_at":              c.Remote.EndAt,
			"tax_rate":            c.Remote.TaxRate,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update series %s: %w", c.Key, err)
		}
	}
	a.record("series", "update", len(a.plan.Series.Updated))
	return nil
}

func (a *applier) serieID(serie string) (string, error) {
	id, ok := a.index.Series[lite.SerieKey(serie)]
	if !ok {
		return "", lite.Assertf("", "series %s is neither stored nor created", serie)
	}
	return id, nil
}

func (a *applier) createCategories() error {
	rows := make([]models.TicketCategory, 0, len(a.plan.Categories.Added))
	for _, e := range a.plan.Categories.Added {
		serieID, err := a.serieID(e.Key.Serie)
		if err != nil {
			return err
		}
		id := uuid.NewString()
		a.index.Categories[e.Key] = id
		rows = append(rows, models.TicketCategory{
			ID:                        id,
			EventSerieID:              serieID,
			InternalTicketingSystemID: e.Value.InternalID,
			Name:                      e.Value.Name,
			Description:               e.Value.Description,
			Price:                     e.Value.Price,
		})
	}
	if len(rows) > 0 {
		if err := a.tx.Omit(clause.Associations).CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("failed to create categories: %w", err)
		}
	}
	a.record("categories", "create", len(rows))
	return nil
}

func (a *applier) updateCategories() error {
	for _, c := range a.plan.Categories.Updated {
		id, ok := a.index.Categories[c.Key]
		if !ok {
			return lite.Assertf("", "no stored row for updated category %v", c.Key)
		}
		err := a.tx.Model(&models.TicketCategory{}).Where("id = ?", id).Updates(map[string]any{
			"name":        c.Remote.Name,
			"description": c.Remote.Description,
			"price":       c.Remote.Price,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update category %v: %w", c.Key, err)
		}
	}
	a.record("categories", "update", len(a.plan.Categories.Updated))
	return nil
}

func (a *applier) removeCategories() error {
	ids := make([]string, 0, len(a.plan.Categories.Removed))
	for _, e := range a.plan.Categories.Removed {
		id, ok := a.index.Categories[e.Key]
		if !ok {
			return lite.Assertf("", "no stored row for removed category %v", e.Key)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := a.deleteWhereIn(&models.EventCategoryTickets{}, "category_id", ids); err != nil {
		return fmt.Errorf("failed to remove sales of categories: %w", err)
	}
	if err := a.deleteByID(&models.TicketCategory{}, ids); err != nil {
		return fmt.Errorf("failed to remove categories: %w", err)
	}
	a.record("categories", "remove", len(ids))
	return nil
}

func (a *applier) createEvents() error {
	rows := make([]models.Event, 0, len(a.plan.Events.Added))
	for _, e := range a.plan.Events.Added {
		serieID, err := a.serieID(e.Key.Serie)
		if err != nil {
			return err
		}
		id := uuid.NewString()
		a.index.Events[e.Key] = id
		rows = append(rows, models.Event{
			ID:                        id,
			EventSerieID:              serieID,
			InternalTicketingSystemID: e.Value.InternalID,
			StartAt:                   e.Value.StartAt,
			EndAt:                     e.Value.EndAt,
		})
	}
	if len(rows) > 0 {
		if err := a.tx.Omit(clause.Associations).CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("failed to create events: %w", err)
		}
	}
	a.record("events", "create", len(rows))
	return nil
}

func (a *applier) updateEvents() error {
	for _, c := range a.plan.Events.Updated {
		id, ok := a.index.Events[c.Key]
		if !ok {
			return lite.Assertf("", "no stored row for updated event %v", c.Key)
		}
		err := a.tx.Model(&models.Event{}).Where("id = ?", id).Updates(map[string]any{
			"start_at": c.Remote.StartAt,
			"end_at":   c.Remote.EndAt,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update event %v: %w", c.Key, err)
		}
	}
	a.record("events", "update", len(a.plan.Events.Updated))
	return nil
}

func (a *applier) removeEvents() error {
	ids := make([]string, 0, len(a.plan.Events.Removed))
	for _, e := range a.plan.Events.Removed {
		id, ok := a.index.Events[e.Key]
		if !ok {
			return lite.Assertf("", "no stored row for removed event %v", e.Key)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := a.deleteWhereIn(&models.EventCategoryTickets{}, "event_id", ids); err != nil {
		return fmt.Errorf("failed to remove sales of events: %w", err)
	}
	if err := a.deleteByID(&models.Event{}, ids); err != nil {
		return fmt.Errorf("failed to remove events: %w", err)
	}
	a.record("events", "remove", len(ids))
	return nil
}

// createSales writes total only; overrides start empty and stay user-owned.
func (a *applier) createSales() error {
	rows := make([]models.EventCategoryTickets, 0, len(a.plan.Sales.Added))
	for _, e := range a.plan.Sales.Added {
		eventID, ok := a.index.Events[e.Key.EventKey()]
		if !ok {
			return lite.Assertf("", "sold tickets reference unknown event %v", e.Key.EventKey())
		}
		categoryID, ok := a.index.Categories[e.Key.CategoryKey()]
		if !ok {
			return lite.Assertf("", "sold tickets reference unknown category %v", e.Key.CategoryKey())
		}
		rows = append(rows, models.EventCategoryTickets{
			ID:         uuid.NewString(),
			EventID:    eventID,
			CategoryID: categoryID,
			Total:      e.Value.Total,
		})
	}
	if len(rows) > 0 {
		if err := a.tx.CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("failed to create sales: %w", err)
		}
	}
	a.record("sales", "create", len(rows))
	return nil
}

// updateSales writes total only, leaving overrides untouched.
func (a *applier) updateSales() error {
	for _, c := range a.plan.Sales.Updated {
		id, ok := a.index.Sales[c.Key]
		if !ok {
			return lite.Assertf("", "no stored row for updated sales %v", c.Key)
		}
		err := a.tx.Model(&models.EventCategoryTickets{}).Where("id = ?", id).Update("total", c.Remote.Total).Error
		if err != nil {
			return fmt.Errorf("failed to update sales %v: %w", c.Key, err)
		}
	}
	a.record("sales", "update", len(a.plan.Sales.Updated))
	return nil
}

func (a *applier) deleteByID(model any, ids []string) error {
	return a.deleteWhereIn(model, "id", ids)
}

func (a *applier) deleteWhereIn(model any, column string, ids []string) error {
	for _, chunk := range chunks(ids, 500) {
		if len(chunk) == 0 {
			continue
		}
		if err := a.tx.Where(column+" IN ?", chunk).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func cloneIndex(in plan.Index) plan.Index {
	out := plan.Index{
		Series:     make(map[lite.SerieKey]string, len(in.Series)),
		Categories: make(map[lite.CategoryKey]string, len(in.Categories)),
		Events:     make(map[lite.EventKey]string, len(in.Events)),
		Sales:      make(map[lite.SalesKey]string, len(in.Sales)),
	}
	for k, v := range in.Series {
		out.Series[k] = v
	}
	for k, v := range in.Categories {
		out.Categories[k] = v
	}
	for k, v := range in.Events {
		out.Events[k] = v
	}
	for k, v := range in.Sales {
		out.Sales[k] = v
	}
	return out
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}
