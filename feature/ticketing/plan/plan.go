package plan

import (
	"slices"

	"ticketing-sync/core/reconcile"
	"ticketing-sync/feature/ticketing/lite"
	"ticketing-sync/feature/ticketing/models"
)

// Plan holds the four deltas of one connection's synchronization.
// Series removals are never planned: a series missing from a fetch window may still exist upstream.
type Plan struct {
	Series     reconcile.Delta[lite.SerieKey, lite.EventSerie]
	Categories reconcile.Delta[lite.CategoryKey, lite.TicketCategory]
	Events     reconcile.Delta[lite.EventKey, lite.Event]
	Sales      reconcile.Delta[lite.SalesKey, lite.EventCategoryTickets]

	// Index maps stored keys to row ids.
	Index Index
}

// Index resolves lite keys to the ids of stored rows.
type Index struct {
	Series     map[lite.SerieKey]string
	Categories map[lite.CategoryKey]string
	Events     map[lite.EventKey]string
	Sales      map[lite.SalesKey]string
}

// Summary counts planned changes per record kind.
type Summary struct {
	Series     reconcile.Counts `json:"series"`
	Categories reconcile.Counts `json:"categories"`
	Events     reconcile.Counts `json:"events"`
	Sales      reconcile.Counts `json:"sales"`
}

// Total returns the number of planned mutations.
func (s Summary) Total() int {
	n := 0
	for _, c := range []reconcile.Counts{s.Series, s.Categories, s.Events, s.Sales} {
		n += c.Added + c.Updated + c.Removed
	}
	return n
}

// IsEmpty reports whether stored and remote state already agree.
func (p *Plan) IsEmpty() bool {
	return p.Series.IsEmpty() && p.Categories.IsEmpty() && p.Events.IsEmpty() && p.Sales.IsEmpty()
}

// Summary returns per-kind counts.
func (p *Plan) Summary() Summary {
	return Summary{
		Series:     p.Series.Counts(),
		Categories: p.Categories.Counts(),
		Events:     p.Events.Counts(),
		Sales:      p.Sales.Counts(),
	}
}

// Build diffs stored rows against remote wrappers.
// stored must already be restricted to the series present in remote. When a deleted and
// recreated connection left two rows for the same series, the row of systemID wins.
func Build(systemID string, stored []models.EventSerie, remote []lite.EventSerieWrapper) (*Plan, error) {
	local, index, owners := fromModels(systemID, stored)

	fetched, err := fromWrappers(remote)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Series:     reconcile.Diff(local.series, fetched.series),
		Categories: reconcile.Diff(local.categories, fetched.categories),
		Events:     reconcile.Diff(local.events, fetched.events),
		Sales:      reconcile.Diff(local.sales, fetched.sales),
		Index:      index,
	}
	p.Series.Removed = nil
	p.Series.Updated = reattach(p.Series.Updated, systemID, owners, local.series, fetched.series)

	return p, nil
}

// reattach plans an update for every unchanged series still owned by another connection of the
// same name, so the store moves it to systemID.
func reattach(
	updated []reconcile.Change[lite.SerieKey, lite.EventSerie],
	systemID string,
	owners map[lite.SerieKey]string,
	stored, remote map[lite.SerieKey]lite.EventSerie,
) []reconcile.Change[lite.SerieKey, lite.EventSerie] {
	planned := make(map[lite.SerieKey]struct{}, len(updated))
	for _, c := range updated {
		planned[c.Key] = struct{}{}
	}

	added := false
	for key, r := range remote {
		s, ok := stored[key]
		if !ok || owners[key] == systemID {
			continue
		}
		if _, ok := planned[key]; ok {
			continue
		}
		updated = append(updated, reconcile.Change[lite.SerieKey, lite.EventSerie]{Key: key, Stored: s, Remote: r})
		added = true
	}

	if added {
		slices.SortFunc(updated, func(a, b reconcile.Change[lite.SerieKey, lite.EventSerie]) int {
			switch {
			case a.Key.Less(b.Key):
				return -1
			case b.Key.Less(a.Key):
				return 1
			}
			return 0
		})
	}
	return updated
}

type maps struct {
	series     map[lite.SerieKey]lite.EventSerie
	categories map[lite.CategoryKey]lite.TicketCategory
	events     map[lite.EventKey]lite.Event
	sales      map[lite.SalesKey]lite.EventCategoryTickets
}

func newMaps() maps {
	return maps{
		series:     make(map[lite.SerieKey]lite.EventSerie),
		categories: make(map[lite.CategoryKey]lite.TicketCategory),
		events:     make(map[lite.EventKey]lite.Event),
		sales:      make(map[lite.SalesKey]lite.EventCategoryTickets),
	}
}

func fromWrappers(remote []lite.EventSerieWrapper) (maps, error) {
	m := newMaps()

	for _, w := range remote {
		if err := w.Validate(); err != nil {
			return m, err
		}

		serie := w.Serie.InternalID
		if _, dup := m.series[lite.SerieKey(serie)]; dup {
			return m, lite.Assertf("", "series %s fetched twice", serie)
		}
		m.series[lite.SerieKey(serie)] = w.Serie

		for _, c := range w.Categories {
			m.categories[lite.CategoryKey{Serie: serie, ID: c.InternalID}] = c
		}
		for _, e := range w.Events {
			m.events[lite.EventKey{Serie: serie, ID: e.InternalID}] = e
		}
		for _, s := range w.Sales {
			m.sales[lite.SalesKey{Serie: serie, Event: s.EventInternalID, Category: s.CategoryInternalID}] = s
		}
	}

	return m, nil
}

func fromModels(systemID string, stored []models.EventSerie) (maps, Index, map[lite.SerieKey]string) {
	m := newMaps()
	index := Index{
		Series:     make(map[lite.SerieKey]string),
		Categories: make(map[lite.CategoryKey]string),
		Events:     make(map[lite.EventKey]string),
		Sales:      make(map[lite.SalesKey]string),
	}

	owner := make(map[lite.SerieKey]string)
	for i := range stored {
		row := &stored[i]
		key := lite.SerieKey(row.InternalTicketingSystemID)
		if prev, seen := owner[key]; seen && (prev == systemID || row.TicketingSystemID != systemID) {
			continue
		}
		owner[key] = row.TicketingSystemID
		index.Series[key] = row.ID
		m.series[key] = SerieFromModel(*row)
	}

	for i := range stored {
		row := &stored[i]
		serie := row.InternalTicketingSystemID
		if index.Series[lite.SerieKey(serie)] != row.ID {
			continue
		}

		categoryIDs := make(map[string]string, len(row.TicketCategories))
		for _, c := range row.TicketCategories {
			key := lite.CategoryKey{Serie: serie, ID: c.InternalTicketingSystemID}
			index.Categories[key] = c.ID
			m.categories[key] = CategoryFromModel(c)
			categoryIDs[c.ID] = c.InternalTicketingSystemID
		}

		for _, e := range row.Events {
			key := lite.EventKey{Serie: serie, ID: e.InternalTicketingSystemID}
			index.Events[key] = e.ID
			m.events[key] = EventFromModel(e)

			for _, s := range e.Sales {
				category, ok := categoryIDs[s.CategoryID]
				if !ok {
					continue
				}
				sk := lite.SalesKey{Serie: serie, Event: e.InternalTicketingSystemID, Category: category}
				index.Sales[sk] = s.ID
				m.sales[sk] = lite.EventCategoryTickets{
					EventInternalID:    e.InternalTicketingSystemID,
					CategoryInternalID: category,
					Total:              s.Total,
				}
			}
		}
	}

	return m, index, owner
}

// SerieFromModel converts a stored series.
func SerieFromModel(s models.EventSerie) lite.EventSerie {
	return lite.NewEventSerie(s.InternalTicketingSystemID, s.Name, s.StartAt, s.EndAt, s.TaxRate)
}

// EventFromModel converts a stored event.
func EventFromModel(e models.Event) lite.Event {
	return lite.NewEvent(e.InternalTicketingSystemID, e.StartAt, e.EndAt)
}

// CategoryFromModel converts a stored category.
func CategoryFromModel(c models.TicketCategory) lite.TicketCategory {
	return lite.NewTicketCategory(c.InternalTicketingSystemID, c.Name, c.Description, c.Price)
}
