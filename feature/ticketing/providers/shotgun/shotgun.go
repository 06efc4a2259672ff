// Package shotgun reads Shotgun events, deals and tickets for one organizer.
package shotgun

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"time"

	"ticketing-sync/core/httpclient"
	"ticketing-sync/core/ratelimit"
	"ticketing-sync/core/utils"
	"ticketing-sync/feature/ticketing/lite"
	"ticketing-sync/feature/ticketing/providers"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// Name is the provider name stored on connections.
	Name = "shotgun"
	// BaseURL is the production endpoint.
	BaseURL = "https://smartboard-api.shotgun.live/api/shotgun"
)

// NewLimiter returns the client's default throttle.
func NewLimiter() *ratelimit.Limiter {
	return ratelimit.New(2, ratelimit.Quota{Requests: 100, Window: time.Minute})
}

// Client reads events with their deals and tickets for one organizer.
type Client struct {
	token     string
	organizer string
	opts      providers.Options
}

// New creates a Shotgun client. AccessKey is the bearer token, SecretKey the organizer id.
func New(creds providers.Credentials, opts providers.Options) *Client {
	return &Client{token: creds.AccessKey, organizer: creds.SecretKey, opts: opts.WithDefaults(BaseURL, NewLimiter)}
}

type pagination struct {
	Next string `json:"next"`
}

type deal struct {
	ProductID   utils.FlexString `json:"product_id" validate:"required"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *int64           `json:"price" validate:"required,gte=0"`
	VATRate     *decimal.Decimal `json:"vat_rate"`
	VATCountry  string           `json:"vat_country"`
}

type event struct {
	ID        utils.FlexString `json:"id" validate:"required"`
	Name      string           `json:"name"`
	StartTime time.Time        `json:"startTime" validate:"required"`
	EndTime   *time.Time       `json:"endTime"`
	Country   string           `json:"country"`
	Currency  string           `json:"currency"`
	Deals     []deal           `json:"deals" validate:"dive"`
}

type ticket struct {
	TicketID  utils.FlexString `json:"ticket_id" validate:"required"`
	EventID   utils.FlexString `json:"event_id" validate:"required"`
	DealID    utils.FlexString `json:"deal_id"`
	Status    string           `json:"ticket_status"`
	OrderedAt time.Time        `json:"ordered_at"`
}

type page[T any] struct {
	Data       []T        `json:"data" validate:"dive"`
	Pagination pagination `json:"pagination"`
}

// TestConnection fetches the organizer's first events page.
func (c *Client) TestConnection(ctx context.Context) bool {
	var p page[event]
	if err := c.get(ctx, c.eventsPath(), nil, &p); err != nil {
		c.opts.Logger.Debug("Connection test failed", zap.String("provider", Name), zap.Error(err))
		return false
	}
	return true
}

// GetEventsSeries returns every French event with a ticket updated since from.
// Each event is a series holding one event.
func (c *Client) GetEventsSeries(ctx context.Context, from time.Time, to *time.Time) ([]lite.EventSerieWrapper, error) {
	recent, err := drain[ticket](ctx, c, "/tickets", url.Values{
		"organizer_id":  {c.organizer},
		"updated_after": {from.UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return nil, err
	}
	touched := make(map[string]struct{})
	for _, t := range recent {
		touched[t.EventID.String()] = struct{}{}
	}
	if len(touched) == 0 {
		return nil, nil
	}

	events, err := drain[event](ctx, c, c.eventsPath(), nil)
	if err != nil {
		return nil, err
	}

	var out []lite.EventSerieWrapper
	for _, e := range events {
		if _, ok := touched[e.ID.String()]; !ok {
			continue
		}
		if !providers.InScope(e.Currency, e.Country) {
			c.opts.Logger.Debug("Skipping event outside scope", zap.String("provider", Name), zap.String("event", e.ID.String()), zap.String("country", e.Country))
			continue
		}

		wrapper, err := c.serie(ctx, e, to)
		if err != nil {
			return nil, err
		}
		out = append(out, wrapper)
	}
	return out, nil
}

func (c *Client) serie(ctx context.Context, e event, to *time.Time) (lite.EventSerieWrapper, error) {
	id := e.ID.String()

	categories := make([]lite.TicketCategory, 0, len(e.Deals))
	tiers := make([]providers.TaxedPrice, 0, len(e.Deals))
	for _, d := range e.Deals {
		if !providers.DefaultScope.InCountry(d.VATCountry) {
			return lite.EventSerieWrapper{}, &providers.ForeignTaxJurisdictionError{
				Provider: Name, Reference: "deal " + d.ProductID.String(), Country: d.VATCountry,
			}
		}
		price := providers.CentsToAmount(*d.Price)
		var rate decimal.NullDecimal
		if d.VATRate != nil {
			rate = providers.PercentToRate(*d.VATRate)
		}
		tiers = append(tiers, providers.TaxedPrice{Price: price, Rate: rate})
		description := d.Description
		categories = append(categories, lite.NewTicketCategory(d.ProductID.String(), d.Name, &description, price))
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].InternalID < categories[j].InternalID })

	tickets, err := drain[ticket](ctx, c, "/tickets", url.Values{"organizer_id": {c.organizer}, "event_id": {id}})
	if err != nil {
		return lite.EventSerieWrapper{}, err
	}
	tickets = providers.Dedupe(tickets, func(t ticket) string { return t.TicketID.String() })

	end := e.StartTime
	if e.EndTime != nil {
		end = *e.EndTime
	}
	events := []lite.Event{lite.NewEvent(id, e.StartTime, e.EndTime)}

	known := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		known[cat.InternalID] = struct{}{}
	}

	tally := providers.NewTally(events, categories)
	for _, t := range tickets {
		if ignored(t.Status) || !providers.Before(t.OrderedAt, to) {
			continue
		}
		if _, ok := known[t.DealID.String()]; !ok {
			return lite.EventSerieWrapper{}, &providers.UnmatchedTicketCategoryError{
				Provider: Name, Serie: id, Ticket: t.TicketID.String(), Category: t.DealID.String(),
			}
		}
		tally.Add(id, t.DealID.String(), 1)
	}

	return lite.EventSerieWrapper{
		Serie:      lite.NewEventSerie(id, e.Name, e.StartTime, end, providers.InferTaxRate(tiers)),
		Events:     events,
		Categories: categories,
		Sales:      tally.Sales(),
	}, nil
}

func ignored(status string) bool {
	return status == "refunded" || status == "canceled"
}

func (c *Client) eventsPath() string {
	return "/organizers/" + url.PathEscape(c.organizer) + "/events"
}

// drain follows pagination.next cursors.
func drain[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	return providers.DrainCursor(ctx, Name, func(ctx context.Context, cursor string) (providers.Page[T], error) {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		if cursor != "" {
			q.Set("after", cursor)
		}
		var p page[T]
		if err := c.get(ctx, path, q, &p); err != nil {
			return providers.Page[T]{}, err
		}
		if err := providers.Validate(Name, p); err != nil {
			return providers.Page[T]{}, err
		}
		return providers.Page[T]{Items: p.Data, Next: p.Pagination.Next}, nil
	})
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := httpclient.NewRequest(ctx, http.MethodGet, c.opts.BaseURL+path, query, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if err := c.opts.Do(req, out); err != nil {
		return providers.Contract(Name, err)
	}
	return nil
}

