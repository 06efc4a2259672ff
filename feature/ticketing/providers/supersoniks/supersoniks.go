// Package supersoniks queries the Supersoniks GraphQL API.
//
// Query documents are checked against the embedded schema.graphql at init.
package supersoniks

import (
	"context"
	"net/http"
	"sort"
	"strings"
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
	Name = "supersoniks"
	// BaseURL is the production endpoint.
	BaseURL = "https://api.supersoniks.com"

	perPage = 50
)

// NewLimiter returns the client's default throttle.
func NewLimiter() *ratelimit.Limiter {
	return ratelimit.New(2, ratelimit.Quota{Requests: 60, Window: time.Minute})
}

// Client queries the GraphQL API with a pre-shared API key.
type Client struct {
	apiKey string
	opts   providers.Options
}

// New creates a Supersoniks client. AccessKey is the API key.
func New(creds providers.Credentials, opts providers.Options) *Client {
	return &Client{apiKey: creds.AccessKey, opts: opts.WithDefaults(BaseURL, NewLimiter)}
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message string `json:"message"`
}

type response[T any] struct {
	Data   *T         `json:"data"`
	Errors []gqlError `json:"errors"`
}

type session struct {
	ID       string     `json:"id" validate:"required"`
	StartsAt time.Time  `json:"startsAt" validate:"required"`
	EndsAt   *time.Time `json:"endsAt"`
}

type rate struct {
	ID          string           `json:"id" validate:"required"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	VATRate     *decimal.Decimal `json:"vatRate"`
}

type event struct {
	ID       string    `json:"id" validate:"required"`
	Title    string    `json:"title"`
	Currency string    `json:"currency"`
	Country  string    `json:"country"`
	Sessions []session `json:"sessions" validate:"dive"`
	Rates    []rate    `json:"rates" validate:"dive"`
}

type ticket struct {
	ID          string    `json:"id" validate:"required"`
	SessionID   string    `json:"sessionId" validate:"required"`
	RateID      string    `json:"rateId" validate:"required"`
	Status      string    `json:"status"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

type pageOf[T any] struct {
	Items      []T `json:"items" validate:"dive"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

type meData struct {
	Me struct {
		ID string `json:"id"`
	} `json:"me"`
}

type eventsData struct {
	Events pageOf[event] `json:"events"`
}

type ticketsData struct {
	Tickets pageOf[ticket] `json:"tickets"`
}

// TestConnection asks who the key belongs to.
func (c *Client) TestConnection(ctx context.Context) bool {
	var data meData
	if err := query(ctx, c, meQuery, nil, &data); err != nil {
		c.opts.Logger.Debug("Connection test failed", zap.String("provider", Name), zap.Error(err))
		return false
	}
	return data.Me.ID != ""
}

// GetEventsSeries returns every euro event in France updated since from.
func (c *Client) GetEventsSeries(ctx context.Context, from time.Time, to *time.Time) ([]lite.EventSerieWrapper, error) {
	events, err := providers.DrainPages(ctx, Name, perPage, func(ctx context.Context, page int) (providers.Page[event], error) {
		var data eventsData
		vars := map[string]any{"page": page, "perPage": perPage, "updatedSince": from.UTC().Format(time.RFC3339)}
		if err := query(ctx, c, eventsQuery, vars, &data); err != nil {
			return providers.Page[event]{}, err
		}
		return providers.Page[event]{Items: data.Events.Items, TotalPages: data.Events.TotalPages}, nil
	})
	if err != nil {
		return nil, err
	}
	events = providers.Dedupe(events, func(e event) string { return e.ID })

	var out []lite.EventSerieWrapper
	for _, e := range events {
		if !providers.InScope(e.Currency, e.Country) {
			continue
		}

		tickets, err := providers.DrainPages(ctx, Name, perPage, func(ctx context.Context, page int) (providers.Page[ticket], error) {
			var data ticketsData
			vars := map[string]any{"eventId": e.ID, "page": page, "perPage": perPage}
			if err := query(ctx, c, ticketsQuery, vars, &data); err != nil {
				return providers.Page[ticket]{}, err
			}
			return providers.Page[ticket]{Items: data.Tickets.Items, TotalPages: data.Tickets.TotalPages}, nil
		})
		if err != nil {
			return nil, err
		}
		// pages shift while sales happen, so a ticket can show up twice
		tickets = providers.Dedupe(tickets, func(t ticket) string { return t.ID })

		wrapper, err := build(e, tickets, to)
		if err != nil {
			return nil, err
		}
		out = append(out, wrapper)
	}
	return out, nil
}

func build(e event, tickets []ticket, to *time.Time) (lite.EventSerieWrapper, error) {
	if len(e.Sessions) == 0 {
		return lite.EventSerieWrapper{}, providers.Violation(Name, "event %s has no session", e.ID)
	}

	events := make([]lite.Event, 0, len(e.Sessions))
	for _, s := range e.Sessions {
		events = append(events, lite.NewEvent(s.ID, s.StartsAt, s.EndsAt))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].InternalID < events[j].InternalID })

	categories := make([]lite.TicketCategory, 0, len(e.Rates))
	tiers := make([]providers.TaxedPrice, 0, len(e.Rates))
	for _, r := range e.Rates {
		var vat decimal.NullDecimal
		if r.VATRate != nil {
			vat = providers.PercentToRate(*r.VATRate)
		}
		tiers = append(tiers, providers.TaxedPrice{Price: r.Price, Rate: vat})
		categories = append(categories, lite.NewTicketCategory(r.ID, r.Name, r.Description, r.Price))
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].InternalID < categories[j].InternalID })

	sessions := make(map[string]struct{}, len(events))
	for _, ev := range events {
		sessions[ev.InternalID] = struct{}{}
	}
	rates := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		rates[cat.InternalID] = struct{}{}
	}

	tally := providers.NewTally(events, categories)
	for _, t := range tickets {
		if t.Status != "valid" || !providers.Before(t.PurchasedAt, to) {
			continue
		}
		if _, ok := rates[t.RateID]; !ok {
			return lite.EventSerieWrapper{}, &providers.UnmatchedTicketCategoryError{
				Provider: Name, Serie: e.ID, Ticket: t.ID, Category: t.RateID,
			}
		}
		if _, ok := sessions[t.SessionID]; !ok {
			return lite.EventSerieWrapper{}, providers.Violation(Name, "ticket %s references unknown session %s", t.ID, t.SessionID)
		}
		tally.Add(t.SessionID, t.RateID, 1)
	}

	start, end := providers.Span(events, time.Time{}, time.Time{})
	return lite.EventSerieWrapper{
		Serie:      lite.NewEventSerie(e.ID, e.Title, start, end, providers.InferTaxRate(tiers)),
		Events:     events,
		Categories: categories,
		Sales:      tally.Sales(),
	}, nil
}

// query posts a GraphQL document and decodes its data into out.
func query[T any](ctx context.Context, c *Client, document string, vars map[string]any, out *T) error {
	req, err := httpclient.NewRequest(ctx, http.MethodPost, c.opts.BaseURL+"/graphql", nil, request{Query: document, Variables: vars})
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.apiKey)

	var resp response[T]
	if err := c.opts.Do(req, &resp); err != nil {
		return providers.Contract(Name, err)
	}
	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return providers.Violation(Name, "graphql errors: %s", strings.Join(messages, "; "))
	}
	if resp.Data == nil {
		return providers.Violation(Name, "graphql response without data")
	}
	if err := providers.Validate(Name, resp.Data); err != nil {
		return err
	}
	*out = *resp.Data
	return nil
}
