package lite

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventSerie is the provider-agnostic view of a show.
type EventSerie struct {
	InternalID string              `json:"internal_id"`
	Name       string              `json:"name"`
	StartAt    time.Time           `json:"start_at"`
	EndAt      time.Time           `json:"end_at"`
	TaxRate    decimal.NullDecimal `json:"tax_rate"`
}

// NewEventSerie builds a normalized EventSerie.
// TaxRate is a fraction (0.055 for 5.5%); an invalid value means unknown.
func NewEventSerie(internalID, name string, startAt, endAt time.Time, taxRate decimal.NullDecimal) EventSerie {
	return EventSerie{
		InternalID: internalID,
		Name:       name,
		StartAt:    Time(startAt),
		EndAt:      Time(endAt),
		TaxRate:    Rate(taxRate),
	}
}

// Equal compares semantic attributes.
func (s EventSerie) Equal(o EventSerie) bool {
	return s.InternalID == o.InternalID &&
		s.Name == o.Name &&
		s.StartAt.Equal(o.StartAt) &&
		s.EndAt.Equal(o.EndAt) &&
		nullDecimalEqual(s.TaxRate, o.TaxRate)
}

// Event is one performance.
type Event struct {
	InternalID string     `json:"internal_id"`
	StartAt    time.Time  `json:"start_at"`
	EndAt      *time.Time `json:"end_at,omitempty"`
}

// NewEvent builds a normalized Event.
func NewEvent(internalID string, startAt time.Time, endAt *time.Time) Event {
	return Event{InternalID: internalID, StartAt: Time(startAt), EndAt: TimePtr(endAt)}
}

// Equal compares semantic attributes.
func (e Event) Equal(o Event) bool {
	return e.InternalID == o.InternalID &&
		e.StartAt.Equal(o.StartAt) &&
		timePtrEqual(e.EndAt, o.EndAt)
}

// TicketCategory is a price tier. Price is in the major currency unit.
type TicketCategory struct {
	InternalID  string          `json:"internal_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// NewTicketCategory builds a normalized TicketCategory. Blank descriptions become nil.
func NewTicketCategory(internalID, name string, description *string, price decimal.Decimal) TicketCategory {
	if description != nil && *description == "" {
		description = nil
	}
	return TicketCategory{
		InternalID:  internalID,
		Name:        name,
		Description: description,
		Price:       Amount(price),
	}
}

// Equal compares semantic attributes.
func (c TicketCategory) Equal(o TicketCategory) bool {
	return c.InternalID == o.InternalID &&
		c.Name == o.Name &&
		stringPtrEqual(c.Description, o.Description) &&
		c.Price.Equal(o.Price)
}

// EventCategoryTickets is the number of tickets of one category sold for one event.
type EventCategoryTickets struct {
	EventInternalID    string `json:"event_internal_id"`
	CategoryInternalID string `json:"category_internal_id"`
	Total              int    `json:"total"`
}

// Equal compares semantic attributes.
func (t EventCategoryTickets) Equal(o EventCategoryTickets) bool {
	return t == o
}

// EventSerieWrapper bundles a series with its children as fetched from one provider.
type EventSerieWrapper struct {
	Serie      EventSerie             `json:"serie"`
	Events     []Event                `json:"events"`
	Categories []TicketCategory       `json:"categories"`
	Sales      []EventCategoryTickets `json:"sales"`
}

// Time normalizes an instant to UTC at second precision, the precision every store keeps.
func Time(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// TimePtr normalizes an optional instant.
func TimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := Time(*t)
	return &n
}

// Amount rounds a monetary amount to cents.
func Amount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Rate rounds a tax rate fraction to four digits (0.0550).
func Rate(r decimal.NullDecimal) decimal.NullDecimal {
	if !r.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(r.Decimal.Round(4))
}

func nullDecimalEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
