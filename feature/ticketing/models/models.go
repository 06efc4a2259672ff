package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Provider names stored in TicketingSystem.Name.
const (
	ProviderBilletweb   = "billetweb"
	ProviderHelloAsso   = "helloasso"
	ProviderMapado      = "mapado"
	ProviderShotgun     = "shotgun"
	ProviderSoTicket    = "soticket"
	ProviderSupersoniks = "supersoniks"
)

// TicketingSystem is one organization's connection to a ticketing provider.
// The reconciler only writes the watermark and error columns.
type TicketingSystem struct {
	ID                    string         `gorm:"type:char(36);primaryKey" json:"id"`
	OrganizationID        string         `gorm:"type:varchar(64);not null;index:idx_ticketing_system_org_name" json:"organization_id"`
	Name                  string         `gorm:"type:varchar(32);not null;index:idx_ticketing_system_org_name" json:"name"`
	APIAccessKey          string         `gorm:"column:api_access_key;type:text;not null" json:"-"`
	APISecretKey          *string        `gorm:"column:api_secret_key;type:text" json:"-"`
	LastSynchronizationAt *time.Time     `json:"last_synchronization_at"`
	LastProcessingError   *string        `gorm:"type:text" json:"last_processing_error"`
	LastProcessingErrorAt *time.Time     `json:"last_processing_error_at"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`

	EventSeries []EventSerie `gorm:"foreignKey:TicketingSystemID" json:"-"`
}

// TableName overrides the table name.
func (TicketingSystem) TableName() string {
	return "ticketing_systems"
}

// BeforeCreate assigns a UUID when none is set.
func (t *TicketingSystem) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// SecretKey returns the secret credential or an empty string.
func (t TicketingSystem) SecretKey() string {
	if t.APISecretKey == nil {
		return ""
	}
	return *t.APISecretKey
}

// EventSerie groups the performances of one show on a provider. It is never deleted by a sync.
type EventSerie struct {
	ID                        string              `gorm:"type:char(36);primaryKey"`
	TicketingSystemID         string              `gorm:"type:char(36);not null;uniqueIndex:idx_event_serie_internal"`
	InternalTicketingSystemID string              `gorm:"type:varchar(191);not null;uniqueIndex:idx_event_serie_internal"`
	Name                      string              `gorm:"type:varchar(255);not null"`
	StartAt                   time.Time           `gorm:"not null"`
	EndAt                     time.Time           `gorm:"not null"`
	TaxRate                   decimal.NullDecimal `gorm:"type:decimal(6,4)"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time

	Events           []Event          `gorm:"foreignKey:EventSerieID;constraint:OnDelete:CASCADE"`
	TicketCategories []TicketCategory `gorm:"foreignKey:EventSerieID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name.
func (EventSerie) TableName() string {
	return "event_series"
}

// BeforeCreate assigns a UUID when none is set.
func (e *EventSerie) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Event is one performance of a series.
type Event struct {
	ID                        string     `gorm:"type:char(36);primaryKey"`
	EventSerieID              string     `gorm:"type:char(36);not null;uniqueIndex:idx_event_internal"`
	InternalTicketingSystemID string     `gorm:"type:varchar(191);not null;uniqueIndex:idx_event_internal"`
	StartAt                   time.Time  `gorm:"not null"`
	EndAt                     *time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time

	Sales []EventCategoryTickets `gorm:"foreignKey:EventID"`
}

// TableName overrides the table name.
func (Event) TableName() string {
	return "events"
}

// BeforeCreate assigns a UUID when none is set.
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// TicketCategory is a price tier of a series.
type TicketCategory struct {
	ID                        string          `gorm:"type:char(36);primaryKey"`
	EventSerieID              string          `gorm:"type:char(36);not null;uniqueIndex:idx_ticket_category_internal"`
	InternalTicketingSystemID string          `gorm:"type:varchar(191);not null;uniqueIndex:idx_ticket_category_internal"`
	Name                      string          `gorm:"type:varchar(255);not null"`
	Description               *string         `gorm:"type:text"`
	Price                     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time

	Sales []EventCategoryTickets `gorm:"foreignKey:CategoryID"`
}

// TableName overrides the table name.
func (TicketCategory) TableName() string {
	return "ticket_categories"
}

// BeforeCreate assigns a UUID when none is set.
func (c *TicketCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// EventCategoryTickets is the sales fact of one category at one event.
// TotalOverride and PriceOverride belong to users and are never written by a sync.
type EventCategoryTickets struct {
	ID            string              `gorm:"type:char(36);primaryKey"`
	EventID       string              `gorm:"type:char(36);not null;uniqueIndex:idx_event_category"`
	CategoryID    string              `gorm:"type:char(36);not null;uniqueIndex:idx_event_category"`
	Total         int                 `gorm:"not null"`
	TotalOverride *int
	PriceOverride decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName overrides the table name.
func (EventCategoryTickets) TableName() string {
	return "event_category_tickets"
}

// BeforeCreate assigns a UUID when none is set.
func (e *EventCategoryTickets) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&TicketingSystem{},
		&EventSerie{},
		&Event{},
		&TicketCategory{},
		&EventCategoryTickets{},
	}
}

// Columns lists the columns the store depends on, per table.
func Columns() map[string][]string {
	return map[string][]string{
		"ticketing_systems":      {"id", "organization_id", "name", "api_access_key", "api_secret_key", "last_synchronization_at", "last_processing_error", "last_processing_error_at", "deleted_at"},
		"event_series":           {"id", "ticketing_system_id", "internal_ticketing_system_id", "name", "start_at", "end_at", "tax_rate"},
		"events":                 {"id", "event_serie_id", "internal_ticketing_system_id", "start_at", "end_at"},
		"ticket_categories":      {"id", "event_serie_id", "internal_ticketing_system_id", "name", "description", "price"},
		"event_category_tickets": {"id", "event_id", "category_id", "total", "total_override", "price_override"},
	}
}
