package lite

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestEventSerie_Equal(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	start := time.Date(2024, 5, 1, 20, 0, 0, 0, paris)

	a := NewEventSerie("s1", "Gala", start, start.Add(2*time.Hour), decimal.NewNullDecimal(decimal.RequireFromString("0.055")))
	b := NewEventSerie("s1", "Gala", start.UTC().Add(300*time.Millisecond), start.Add(2*time.Hour), decimal.NewNullDecimal(decimal.RequireFromString("0.0550")))

	assert.True(t, a.Equal(b))
	assert.Equal(t, time.UTC, a.StartAt.Location())

	c := b
	c.TaxRate = decimal.NullDecimal{}
	assert.False(t, a.Equal(c))

	d := b
	d.Name = "Gala 2"
	assert.False(t, a.Equal(d))
}

func TestEvent_Equal(t *testing.T) {
	start := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	assert.True(t, NewEvent("e", start, nil).Equal(NewEvent("e", start, nil)))
	assert.False(t, NewEvent("e", start, nil).Equal(NewEvent("e", start, &end)))
	assert.True(t, NewEvent("e", start, &end).Equal(NewEvent("e", start, ptr(end.Add(time.Millisecond)))))
}

func TestTicketCategory_Equal(t *testing.T) {
	a := NewTicketCategory("c", "Full", ptr(""), decimal.RequireFromString("20"))
	b := NewTicketCategory("c", "Full", nil, decimal.RequireFromString("20.00"))

	assert.Nil(t, a.Description)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(NewTicketCategory("c", "Full", ptr("VIP"), decimal.RequireFromString("20"))))
	assert.False(t, a.Equal(NewTicketCategory("c", "Full", nil, decimal.RequireFromString("20.01"))))
}

func TestKeys_Less(t *testing.T) {
	assert.True(t, SalesKey{"a", "e2", "c1"}.Less(SalesKey{"b", "e1", "c1"}))
	assert.True(t, SalesKey{"a", "e1", "c9"}.Less(SalesKey{"a", "e2", "c1"}))
	assert.True(t, SalesKey{"a", "e1", "c1"}.Less(SalesKey{"a", "e1", "c2"}))
	assert.False(t, SalesKey{"a", "e1", "c1"}.Less(SalesKey{"a", "e1", "c1"}))

	// ids containing separators must not collide
	assert.NotEqual(t, SalesKey{"s", "a_b", "c"}, SalesKey{"s", "a", "b_c"})

	assert.Equal(t, EventKey{"s", "e"}, SalesKey{"s", "e", "c"}.EventKey())
	assert.Equal(t, CategoryKey{"s", "c"}, SalesKey{"s", "e", "c"}.CategoryKey())
}

func TestWrapper_Validate(t *testing.T) {
	start := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	valid := EventSerieWrapper{
		Serie:      NewEventSerie("s1", "Gala", start, start, decimal.NullDecimal{}),
		Events:     []Event{NewEvent("e1", start, nil)},
		Categories: []TicketCategory{NewTicketCategory("c1", "Full", nil, decimal.NewFromInt(20))},
		Sales:      []EventCategoryTickets{{EventInternalID: "e1", CategoryInternalID: "c1", Total: 3}},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(w *EventSerieWrapper)
	}{
		{"Unknown event", func(w *EventSerieWrapper) { w.Sales[0].EventInternalID = "e9" }},
		{"Unknown category", func(w *EventSerieWrapper) { w.Sales[0].CategoryInternalID = "c9" }},
		{"Negative total", func(w *EventSerieWrapper) { w.Sales[0].Total = -1 }},
		{"Duplicate event", func(w *EventSerieWrapper) { w.Events = append(w.Events, w.Events[0]) }},
		{"Duplicate sales", func(w *EventSerieWrapper) { w.Sales = append(w.Sales, w.Sales[0]) }},
		{"Missing serie id", func(w *EventSerieWrapper) { w.Serie.InternalID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := valid
			w.Events = append([]Event(nil), valid.Events...)
			w.Sales = append([]EventCategoryTickets(nil), valid.Sales...)
			tt.mutate(&w)

			var assertErr *AssertionError
			assert.True(t, errors.As(w.Validate(), &assertErr))
		})
	}
}
