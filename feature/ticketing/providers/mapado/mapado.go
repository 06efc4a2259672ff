// Package mapado reads Mapado ticketings from its JSON-LD API.
package mapado

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"ticketing-sync/core/httpclient"
	"ticketing-sync/core/ratelimit"
	"ticketing-sync/feature/ticketing/lite"
	"ticketing-sync/feature/ticketing/providers"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// Name is the provider name stored on connections.
	Name = "mapado"
	// BaseURL is the production endpoint.
	BaseURL = "https://ticketing.mapado.net"

	pageSize = 100
)

// NewLimiter returns the client's default throttle.
func NewLimiter() *ratelimit.Limiter {
	return ratelimit.New(2, ratelimit.Quota{Requests: 10, Window: time.Second})
}

// Client reads ticketings, dates, prices and tickets from the Hydra API with a bearer token.
type Client struct {
	token string
	opts  providers.Options
}

// New creates a Mapado client. AccessKey is the bearer token.
func New(creds providers.Credentials, opts providers.Options) *Client {
	return &Client{token: creds.AccessKey, opts: opts.WithDefaults(BaseURL, NewLimiter)}
}

type collection[T any] struct {
	Members    []T `json:"hydra:member" validate:"dive"`
	TotalItems int `json:"hydra:totalItems"`
	View       struct {
		Next string `json:"hydra:next"`
	} `json:"hydra:view"`
}

type ticketing struct {
	ID       string `json:"@id" validate:"required"`
	Title    string `json:"title"`
	Currency string `json:"currency"`
}

type eventDate struct {
	ID        string     `json:"@id" validate:"required"`
	StartDate time.Time  `json:"startDate" validate:"required"`
	EndDate   *time.Time `json:"endDate"`
}

type ticketPrice struct {
	ID          string           `json:"@id" validate:"required"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	FacialValue *int64           `json:"facialValue" validate:"required,gte=0"`
	VATRate     *decimal.Decimal `json:"vatRate"`
}

type ticket struct {
	ID          string    `json:"@id" validate:"required"`
	EventDate   string    `json:"eventDate" validate:"required"`
	TicketPrice string    `json:"ticketPrice" validate:"required"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TestConnection fetches one ticketing.
func (c *Client) TestConnection(ctx context.Context) bool {
	var page collection[ticketing]
	if err := c.get(ctx, "/v1/ticketings", url.Values{"itemsPerPage": {"1"}}, &page); err != nil {
		c.opts.Logger.Debug("Connection test failed", zap.String("provider", Name), zap.Error(err))
		return false
	}
	return true
}

// GetEventsSeries returns every ticketing with a ticket updated since from.
func (c *Client) GetEventsSeries(ctx context.Context, from time.Time, to *time.Time) ([]lite.EventSerieWrapper, error) {
	ticketings, err := list[ticketing](ctx, c, "/v1/ticketings", nil)
	if err != nil {
		return nil, err
	}

	var out []lite.EventSerieWrapper
	for _, t := range ticketings {
		if !providers.DefaultScope.InCurrency(t.Currency) {
			continue
		}

		var recent collection[ticket]
		query := url.Values{
			"ticketing":    {t.ID},
			"updatedSince": {from.UTC().Format(time.RFC3339)},
			"itemsPerPage": {"1"},
		}
		if err := c.get(ctx, "/v1/tickets", query, &recent); err != nil {
			return nil, err
		}
		if len(recent.Members) == 0 {
			continue
		}

		wrapper, err := c.serie(ctx, t, to)
		if err != nil {
			return nil, err
		}
		out = append(out, wrapper)
	}
	return out, nil
}

func (c *Client) serie(ctx context.Context, t ticketing, to *time.Time) (lite.EventSerieWrapper, error) {
	scope := url.Values{"ticketing": {t.ID}}

	dates, err := list[eventDate](ctx, c, "/v1/event_dates", scope)
	if err != nil {
		return lite.EventSerieWrapper{}, err
	}
	prices, err := list[ticketPrice](ctx, c, "/v1/ticket_prices", scope)
	if err != nil {
		return lite.EventSerieWrapper{}, err
	}
	tickets, err := list[ticket](ctx, c, "/v1/tickets", scope)
	if err != nil {
		return lite.EventSerieWrapper{}, err
	}
	tickets = providers.Dedupe(tickets, func(tk ticket) string { return tk.ID })

	if len(dates) == 0 {
		return lite.EventSerieWrapper{}, providers.Violation(Name, "ticketing %s has no event date", t.ID)
	}

	events := make([]lite.Event, 0, len(dates))
	for _, d := range dates {
		events = append(events, lite.NewEvent(d.ID, d.StartDate, d.EndDate))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].InternalID < events[j].InternalID })

	categories := make([]lite.TicketCategory, 0, len(prices))
	tiers := make([]providers.TaxedPrice, 0, len(prices))
	for _, p := range prices {
		amount := providers.CentsToAmount(*p.FacialValue)
		var rate decimal.NullDecimal
		if p.VATRate != nil {
			rate = decimal.NewNullDecimal(*p.VATRate)
		}
		tiers = append(tiers, providers.TaxedPrice{Price: amount, Rate: rate})
		description := p.Description
		categories = append(categories, lite.NewTicketCategory(p.ID, p.Name, &description, amount))
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].InternalID < categories[j].InternalID })

	knownDates := make(map[string]struct{}, len(events))
	for _, e := range events {
		knownDates[e.InternalID] = struct{}{}
	}
	knownPrices := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		knownPrices[cat.InternalID] = struct{}{}
	}

	tally := providers.NewTally(events, categories)
	for _, tk := range tickets {
		if cancelled(tk.Status) || !providers.Before(tk.CreatedAt, to) {
			continue
		}
		if _, ok := knownPrices[tk.TicketPrice]; !ok {
			return lite.EventSerieWrapper{}, &providers.UnmatchedTicketCategoryError{
				Provider: Name, Serie: t.ID, Ticket: tk.ID, Category: tk.TicketPrice,
			}
		}
		if _, ok := knownDates[tk.EventDate]; !ok {
			return lite.EventSerieWrapper{}, providers.Violation(Name, "ticket %s references unknown event date %s", tk.ID, tk.EventDate)
		}
		tally.Add(tk.EventDate, tk.TicketPrice, 1)
	}

	start, end := providers.Span(events, time.Time{}, time.Time{})
	return lite.EventSerieWrapper{
		Serie:      lite.NewEventSerie(t.ID, t.Title, start, end, providers.InferTaxRate(tiers)),
		Events:     events,
		Categories: categories,
		Sales:      tally.Sales(),
	}, nil
}

func cancelled(status string) bool {
	switch status {
	case "cancelled", "canceled", "refunded":
		return true
	default:
		return false
	}
}

// list drains a Hydra collection page by page.
func list[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	return providers.DrainPages(ctx, Name, pageSize, func(ctx context.Context, page int) (providers.Page[T], error) {
		q := url.Values{"page": {strconv.Itoa(page)}, "itemsPerPage": {strconv.Itoa(pageSize)}}
		for k, v := range query {
			q[k] = v
		}
		var coll collection[T]
		if err := c.get(ctx, path, q, &coll); err != nil {
			return providers.Page[T]{}, err
		}
		if err := providers.Validate(Name, coll); err != nil {
			return providers.Page[T]{}, err
		}
		return providers.Page[T]{Items: coll.Members, Last: coll.View.Next == ""}, nil
	})
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := httpclient.NewRequest(ctx, http.MethodGet, c.opts.BaseURL+path, query, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/ld+json")
	if err := c.opts.Do(req, out); err != nil {
		return providers.Contract(Name, err)
	}
	return nil
}
