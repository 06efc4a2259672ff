package providers

import (
	"sort"
	"time"

	"ticketing-sync/feature/ticketing/lite"
)

// Tally counts sold tickets per (event, category). Every pair starts at zero so a
// fully refunded tier keeps its row, and the overrides on it, at a zero total.
type Tally struct {
	counts map[[2]string]int
}

// NewTally creates a tally over every event and category pair.
func NewTally(events []lite.Event, categories []lite.TicketCategory) *Tally {
	t := &Tally{counts: make(map[[2]string]int, len(events)*len(categories))}
	for _, e := range events {
		for _, c := range categories {
			t.counts[[2]string{e.InternalID, c.InternalID}] = 0
		}
	}
	return t
}

// Add counts n tickets.
func (t *Tally) Add(eventID, categoryID string, n int) {
	t.counts[[2]string{eventID, categoryID}] += n
}

// Sales returns the facts ordered by event then category.
func (t *Tally) Sales() []lite.EventCategoryTickets {
	out := make([]lite.EventCategoryTickets, 0, len(t.counts))
	for k, total := range t.counts {
		out = append(out, lite.EventCategoryTickets{EventInternalID: k[0], CategoryInternalID: k[1], Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventInternalID != out[j].EventInternalID {
			return out[i].EventInternalID < out[j].EventInternalID
		}
		return out[i].CategoryInternalID < out[j].CategoryInternalID
	})
	return out
}

// Span returns the earliest start and latest end of events, falling back to the given bounds.
func Span(events []lite.Event, start, end time.Time) (time.Time, time.Time) {
	for i, e := range events {
		if i == 0 || e.StartAt.Before(start) {
			start = e.StartAt
		}
		last := e.StartAt
		if e.EndAt != nil {
			last = *e.EndAt
		}
		if i == 0 || last.After(end) {
			end = last
		}
	}
	return start, end
}
