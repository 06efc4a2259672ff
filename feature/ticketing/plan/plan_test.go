package plan

import (
	"errors"
	"testing"
	"time"

	"ticketing-sync/feature/ticketing/lite"
	"ticketing-sync/feature/ticketing/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

func storedSerie(systemID, internalID string) models.EventSerie {
	return models.EventSerie{
		ID:                        "row-" + internalID,
		TicketingSystemID:         systemID,
		InternalTicketingSystemID: internalID,
		Name:                      "Gala",
		StartAt:                   start,
		EndAt:                     start.Add(2 * time.Hour),
		TicketCategories: []models.TicketCategory{
			{ID: "cat-full", InternalTicketingSystemID: "full", Name: "Full", Price: decimal.NewFromInt(20)},
			{ID: "cat-old", InternalTicketingSystemID: "old", Name: "Old", Price: decimal.NewFromInt(5)},
		},
		Events: []models.Event{
			{
				ID:                        "ev-1",
				InternalTicketingSystemID: "e1",
				StartAt:                   start,
				Sales: []models.EventCategoryTickets{
					{ID: "sale-1", CategoryID: "cat-full", Total: 10},
					{ID: "sale-2", CategoryID: "cat-old", Total: 1},
				},
			},
		},
	}
}

func remoteWrapper(internalID string) lite.EventSerieWrapper {
	return lite.EventSerieWrapper{
		Serie: lite.NewEventSerie(internalID, "Gala", start, start.Add(2*time.Hour), decimal.NullDecimal{}),
		Events: []lite.Event{
			lite.NewEvent("e1", start, nil),
			lite.NewEvent("e2", start.Add(24*time.Hour), nil),
		},
		Categories: []lite.TicketCategory{
			lite.NewTicketCategory("full", "Full", nil, decimal.NewFromInt(22)),
		},
		Sales: []lite.EventCategoryTickets{
			{EventInternalID: "e1", CategoryInternalID: "full", Total: 12},
			{EventInternalID: "e2", CategoryInternalID: "full", Total: 3},
		},
	}
}

func TestBuild(t *testing.T) {
	p, err := Build("sys", []models.EventSerie{storedSerie("sys", "s1")}, []lite.EventSerieWrapper{remoteWrapper("s1")})
	require.NoError(t, err)

	assert.True(t, p.Series.IsEmpty())

	require.Len(t, p.Categories.Updated, 1)
	assert.Equal(t, lite.CategoryKey{Serie: "s1", ID: "full"}, p.Categories.Updated[0].Key)
	require.Len(t, p.Categories.Removed, 1)
	assert.Equal(t, lite.CategoryKey{Serie: "s1", ID: "old"}, p.Categories.Removed[0].Key)

	require.Len(t, p.Events.Added, 1)
	assert.Equal(t, lite.EventKey{Serie: "s1", ID: "e2"}, p.Events.Added[0].Key)

	require.Len(t, p.Sales.Updated, 1)
	assert.Equal(t, 12, p.Sales.Updated[0].Remote.Total)
	require.Len(t, p.Sales.Added, 1)
	require.Len(t, p.Sales.Removed, 1)
	assert.Equal(t, lite.SalesKey{Serie: "s1", Event: "e1", Category: "old"}, p.Sales.Removed[0].Key)

	assert.Equal(t, "sale-2", p.Index.Sales[p.Sales.Removed[0].Key])
	assert.Equal(t, "row-s1", p.Index.Series["s1"])

	summary := p.Summary()
	assert.Equal(t, 6, summary.Total())
	assert.False(t, p.IsEmpty())
}

func TestBuild_Idempotent(t *testing.T) {
	stored := models.EventSerie{
		ID:                        "row-s1",
		TicketingSystemID:         "sys",
		InternalTicketingSystemID: "s1",
		Name:                      "Gala",
		StartAt:                   start,
		EndAt:                     start.Add(2 * time.Hour),
		TicketCategories:          []models.TicketCategory{{ID: "c", InternalTicketingSystemID: "full", Name: "Full", Price: decimal.RequireFromString("22.00")}},
		Events: []models.Event{
			{ID: "a", InternalTicketingSystemID: "e1", StartAt: start, Sales: []models.EventCategoryTickets{{ID: "x", CategoryID: "c", Total: 12}}},
			{ID: "b", InternalTicketingSystemID: "e2", StartAt: start.Add(24 * time.Hour), Sales: []models.EventCategoryTickets{{ID: "y", CategoryID: "c", Total: 3}}},
		},
	}

	p, err := Build("sys", []models.EventSerie{stored}, []lite.EventSerieWrapper{remoteWrapper("s1")})
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
	assert.Equal(t, 0, p.Summary().Total())
}

func TestBuild_NeverRemovesSeries(t *testing.T) {
	p, err := Build("sys", []models.EventSerie{storedSerie("sys", "gone")}, nil)
	require.NoError(t, err)

	assert.Empty(t, p.Series.Removed)
	assert.Equal(t, 0, p.Summary().Series.Removed)
}

func TestBuild_NewSeries(t *testing.T) {
	p, err := Build("sys", nil, []lite.EventSerieWrapper{remoteWrapper("s2")})
	require.NoError(t, err)

	assert.Len(t, p.Series.Added, 1)
	assert.Len(t, p.Events.Added, 2)
	assert.Len(t, p.Categories.Added, 1)
	assert.Len(t, p.Sales.Added, 2)
}

func TestBuild_ReattachesSeriesOfPreviousConnection(t *testing.T) {
	old := storedSerie("old-sys", "s1")
	old.TicketCategories = nil
	old.Events = nil

	remote := remoteWrapper("s1")
	remote.Events, remote.Categories, remote.Sales = nil, nil, nil

	p, err := Build("sys", []models.EventSerie{old}, []lite.EventSerieWrapper{remote})
	require.NoError(t, err)

	require.Len(t, p.Series.Updated, 1)
	assert.Equal(t, lite.SerieKey("s1"), p.Series.Updated[0].Key)
	assert.Empty(t, p.Series.Added)
}

func TestBuild_PrefersCurrentConnectionRow(t *testing.T) {
	old := storedSerie("old-sys", "s1")
	old.ID = "old-row"
	current := storedSerie("sys", "s1")

	p, err := Build("sys", []models.EventSerie{old, current}, []lite.EventSerieWrapper{remoteWrapper("s1")})
	require.NoError(t, err)

	assert.Equal(t, "row-s1", p.Index.Series["s1"])
	assert.Empty(t, p.Series.Updated)
}

func TestBuild_RejectsInconsistentWrapper(t *testing.T) {
	w := remoteWrapper("s1")
	w.Sales = append(w.Sales, lite.EventCategoryTickets{EventInternalID: "nope", CategoryInternalID: "full", Total: 1})

	_, err := Build("sys", nil, []lite.EventSerieWrapper{w})

	var assertErr *lite.AssertionError
	assert.True(t, errors.As(err, &assertErr))
}

func TestBuild_RejectsDuplicateSeries(t *testing.T) {
	_, err := Build("sys", nil, []lite.EventSerieWrapper{remoteWrapper("s1"), remoteWrapper("s1")})

	var assertErr *lite.AssertionError
	assert.True(t, errors.As(err, &assertErr))
}
