// Package billetweb reads Billetweb events, dates, tickets and attendees.
package billetweb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
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
	Name = "billetweb"
	// BaseURL is the production endpoint.
	BaseURL = "https://www.billetweb.fr"

	timeLayout = "2006-01-02 15:04:05"
)

// NewLimiter returns the documented account quotas. Calls are serialized.
func NewLimiter() *ratelimit.Limiter {
	return ratelimit.New(1,
		ratelimit.Quota{Requests: 10, Window: 10 * time.Second},
		ratelimit.Quota{Requests: 300, Window: 10 * time.Minute},
		ratelimit.Quota{Requests: 1000, Window: time.Hour},
	)
}

// Client reads events, dates, tickets and attendees with a pre-shared user and key.
type Client struct {
	creds providers.Credentials
	opts  providers.Options
}

// New creates a Billetweb client. AccessKey is the API user, SecretKey the API key.
func New(creds providers.Credentials, opts providers.Options) *Client {
	return &Client{creds: creds, opts: opts.WithDefaults(BaseURL, NewLimiter)}
}

type event struct {
	ID    utils.FlexString `json:"id" validate:"required"`
	Name  string           `json:"name"`
	Start string           `json:"start"`
	End   string           `json:"end"`
}

type date struct {
	ID    utils.FlexString `json:"id" validate:"required"`
	Start string           `json:"start" validate:"required"`
	End   string           `json:"end"`
}

type ticket struct {
	ID          utils.FlexString `json:"id" validate:"required"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       string           `json:"price"`
	VAT         string           `json:"vat"`
}

type attendee struct {
	ID        utils.FlexString `json:"id" validate:"required"`
	TicketID  utils.FlexString `json:"ticket_id"`
	DateID    utils.FlexString `json:"date_id"`
	OrderDate string           `json:"order_date"`
	Disabled  utils.FlexString `json:"disabled"`
}

// TestConnection lists events.
func (c *Client) TestConnection(ctx context.Context) bool {
	var events []event
	if err := c.get(ctx, "/api/events", nil, &events); err != nil {
		c.opts.Logger.Debug("Connection test failed", zap.String("provider", Name), zap.Error(err))
		return false
	}
	return true
}

// GetEventsSeries returns every event with an attendee updated since from.
func (c *Client) GetEventsSeries(ctx context.Context, from time.Time, to *time.Time) ([]lite.EventSerieWrapper, error) {
	var events []event
	if err := c.get(ctx, "/api/events", nil, &events); err != nil {
		return nil, err
	}
	if err := providers.Validate(Name, struct {
		Events []event `validate:"dive"`
	}{events}); err != nil {
		return nil, err
	}

	var out []lite.EventSerieWrapper
	for _, e := range events {
		touched, err := c.touched(ctx, e.ID.String(), from)
		if err != nil {
			return nil, err
		}
		if !touched {
			continue
		}

		wrapper, err := c.serie(ctx, e, to)
		if err != nil {
			return nil, err
		}
		out = append(out, wrapper)
	}

	c.opts.Logger.Debug("Fetched series", zap.String("provider", Name), zap.Int("events", len(events)), zap.Int("touched", len(out)))
	return out, nil
}

func (c *Client) touched(ctx context.Context, eventID string, from time.Time) (bool, error) {
	var attendees []attendee
	query := url.Values{"last_update": {strconv.FormatInt(from.Unix(), 10)}}
	if err := c.get(ctx, "/api/event/"+url.PathEscape(eventID)+"/attendees", query, &attendees); err != nil {
		return false, err
	}
	return len(attendees) > 0, nil
}

func (c *Client) serie(ctx context.Context, e event, to *time.Time) (lite.EventSerieWrapper, error) {
	id := e.ID.String()
	path := "/api/event/" + url.PathEscape(id)

	var (
		dates     []date
		tickets   []ticket
		attendees []attendee
	)
	if err := c.get(ctx, path+"/dates", nil, &dates); err != nil {
		return lite.EventSerieWrapper{}, err
	}
	if err := c.get(ctx, path+"/tickets", nil, &tickets); err != nil {
		return lite.EventSerieWrapper{}, err
	}
	if err := c.get(ctx, path+"/attendees", nil, &attendees); err != nil {
		return lite.EventSerieWrapper{}, err
	}
	if err := providers.Validate(Name, struct {
		Dates     []date     `validate:"dive"`
		Tickets   []ticket   `validate:"dive"`
		Attendees []attendee `validate:"dive"`
	}{dates, tickets, attendees}); err != nil {
		return lite.EventSerieWrapper{}, err
	}

	events := make([]lite.Event, 0, len(dates))
	for _, d := range dates {
		start, err := parseTime(d.Start)
		if err != nil {
			return lite.EventSerieWrapper{}, providers.Violation(Name, "date %s: %v", d.ID, err)
		}
		var end *time.Time
		if d.End != "" {
			t, err := parseTime(d.End)
			if err != nil {
				return lite.EventSerieWrapper{}, providers.Violation(Name, "date %s: %v", d.ID, err)
			}
			end = &t
		}
		events = append(events, lite.NewEvent(d.ID.String(), start, end))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].InternalID < events[j].InternalID })

	categories := make([]lite.TicketCategory, 0, len(tickets))
	tiers := make([]providers.TaxedPrice, 0, len(tickets))
	for _, t := range tickets {
		price, err := utils.ToDecimal(t.Price)
		if err != nil {
			return lite.EventSerieWrapper{}, providers.Violation(Name, "ticket %s price %q: %v", t.ID, t.Price, err)
		}
		var rate decimal.NullDecimal
		if vat, err := utils.ToDecimal(t.VAT); err == nil {
			rate = providers.PercentToRate(vat)
		}
		tiers = append(tiers, providers.TaxedPrice{Price: price, Rate: rate})

		description := t.Description
		categories = append(categories, lite.NewTicketCategory(t.ID.String(), t.Name, &description, price))
	}

	known := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		known[cat.InternalID] = struct{}{}
	}
	dated := make(map[string]struct{}, len(events))
	for _, ev := range events {
		dated[ev.InternalID] = struct{}{}
	}

	tally := providers.NewTally(events, categories)
	for _, a := range attendees {
		if utils.ToBool(a.Disabled.String()) {
			continue
		}
		if a.OrderDate != "" {
			ordered, err := parseTime(a.OrderDate)
			if err != nil {
				return lite.EventSerieWrapper{}, providers.Violation(Name, "attendee %s: %v", a.ID, err)
			}
			if !providers.Before(ordered, to) {
				continue
			}
		}
		if _, ok := known[a.TicketID.String()]; !ok {
			return lite.EventSerieWrapper{}, &providers.UnmatchedTicketCategoryError{
				Provider: Name, Serie: id, Ticket: a.ID.String(), Category: a.TicketID.String(),
			}
		}
		if _, ok := dated[a.DateID.String()]; !ok {
			return lite.EventSerieWrapper{}, providers.Violation(Name, "attendee %s references unknown date %q", a.ID, a.DateID)
		}
		tally.Add(a.DateID.String(), a.TicketID.String(), 1)
	}

	fallbackStart, err := parseTime(e.Start)
	if err != nil && len(events) == 0 {
		return lite.EventSerieWrapper{}, providers.Violation(Name, "event %s has no dates and an invalid start %q", id, e.Start)
	}
	fallbackEnd, err := parseTime(e.End)
	if err != nil {
		fallbackEnd = fallbackStart
	}
	start, end := providers.Span(events, fallbackStart, fallbackEnd)

	return lite.EventSerieWrapper{
		Serie:      lite.NewEventSerie(id, e.Name, start, end, providers.InferTaxRate(tiers)),
		Events:     events,
		Categories: categories,
		Sales:      tally.Sales(),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	q := url.Values{"user": {c.creds.AccessKey}, "key": {c.creds.SecretKey}, "version": {"1"}}
	for k, v := range query {
		q[k] = v
	}
	req, err := httpclient.NewRequest(ctx, http.MethodGet, c.opts.BaseURL+path, q, nil)
	if err != nil {
		return err
	}
	if err := c.opts.Do(req, out); err != nil {
		return providers.Contract(Name, err)
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, providers.Paris)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	return t, nil
}
