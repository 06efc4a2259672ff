package providers

import (
	"testing"
	"time"

	"ticketing-sync/feature/ticketing/lite"

	"github.com/stretchr/testify/assert"
)

func TestTally(t *testing.T) {
	events := []lite.Event{{InternalID: "e2"}, {InternalID: "e1"}}
	categories := []lite.TicketCategory{{InternalID: "c1"}}

	tally := NewTally(events, categories)
	tally.Add("e1", "c1", 2)
	tally.Add("e1", "c1", 1)

	assert.Equal(t, []lite.EventCategoryTickets{
		{EventInternalID: "e1", CategoryInternalID: "c1", Total: 3},
		{EventInternalID: "e2", CategoryInternalID: "c1", Total: 0},
	}, tally.Sales())
}

func TestSpan(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 2, 20, 0, 0, 0, time.UTC)
	end2 := t2.Add(2 * time.Hour)
	fallback := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	start, end := Span([]lite.Event{{StartAt: t2, EndAt: &end2}, {StartAt: t1}}, fallback, fallback)
	assert.Equal(t, t1, start)
	assert.Equal(t, end2, end)

	start, end = Span(nil, fallback, fallback)
	assert.Equal(t, fallback, start)
	assert.Equal(t, fallback, end)
}
