// Package soticket reads SoTicket shows and sales from its XML API.
package soticket

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
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
	Name = "soticket"
	// BaseURL is the production endpoint.
	BaseURL = "https://www.soticket.net"

	timeLayout = "2006-01-02 15:04:05"
)

// NewLimiter returns the client's default throttle.
func NewLimiter() *ratelimit.Limiter {
	return ratelimit.New(1, ratelimit.Quota{Requests: 5, Window: time.Second})
}

// Client reads shows, their sessions, rates and sales from the XML API.
// Every run logs in first to obtain a session token.
type Client struct {
	creds providers.Credentials
	opts  providers.Options
}

// New creates a SoTicket client. AccessKey is the login, SecretKey the password.
func New(creds providers.Credentials, opts providers.Options) *Client {
	return &Client{creds: creds, opts: opts.WithDefaults(BaseURL, NewLimiter)}
}

type loginResponse struct {
	XMLName xml.Name `xml:"login"`
	Token   string   `xml:"token"`
}

type seance struct {
	ID    string `xml:"id,attr" validate:"required"`
	Debut string `xml:"debut,attr" validate:"required"`
	Fin   string `xml:"fin,attr"`
}

type tarif struct {
	ID          string `xml:"id,attr" validate:"required"`
	Nom         string `xml:"nom,attr"`
	Description string `xml:"description,attr"`
	Prix        string `xml:"prix,attr" validate:"required"`
}

type spectacle struct {
	ID      string   `xml:"id,attr" validate:"required"`
	Nom     string   `xml:"nom,attr"`
	TVA     string   `xml:"tva,attr"`
	Seances []seance `xml:"seance" validate:"dive"`
	Tarifs  []tarif  `xml:"tarif" validate:"dive"`
}

type spectaclesPage struct {
	XMLName    xml.Name    `xml:"spectacles"`
	Page       int         `xml:"page,attr"`
	Pages      int         `xml:"pages,attr"`
	Spectacles []spectacle `xml:"spectacle" validate:"dive"`
}

type vente struct {
	ID      string `xml:"id,attr" validate:"required"`
	Seance  string `xml:"seance,attr" validate:"required"`
	Tarif   string `xml:"tarif,attr" validate:"required"`
	Montant string `xml:"montant,attr"`
	Etat    string `xml:"etat,attr"`
	Date    string `xml:"date,attr"`
}

type ventesPage struct {
	XMLName xml.Name `xml:"ventes"`
	Page    int      `xml:"page,attr"`
	Pages   int      `xml:"pages,attr"`
	Ventes  []vente  `xml:"vente" validate:"dive"`
}

// TestConnection logs in.
func (c *Client) TestConnection(ctx context.Context) bool {
	if _, err := c.login(ctx); err != nil {
		c.opts.Logger.Debug("Connection test failed", zap.String("provider", Name), zap.Error(err))
		return false
	}
	return true
}

// GetEventsSeries returns every show with a sale recorded since from.
func (c *Client) GetEventsSeries(ctx context.Context, from time.Time, to *time.Time) ([]lite.EventSerieWrapper, error) {
	token, err := c.login(ctx)
	if err != nil {
		return nil, err
	}

	shows, err := providers.DrainPages(ctx, Name, 0, func(ctx context.Context, page int) (providers.Page[spectacle], error) {
		var p spectaclesPage
		query := url.Values{"token": {token}, "page": {strconv.Itoa(page)}}
		if err := c.get(ctx, "/api/spectacles", query, &p); err != nil {
			return providers.Page[spectacle]{}, err
		}
		if err := providers.Validate(Name, p); err != nil {
			return providers.Page[spectacle]{}, err
		}
		return providers.Page[spectacle]{Items: p.Spectacles, TotalPages: p.Pages}, nil
	})
	if err != nil {
		return nil, err
	}

	since := from.In(providers.Paris).Format(timeLayout)
	var out []lite.EventSerieWrapper
	for _, s := range shows {
		recent, err := c.sales(ctx, token, s.ID, since)
		if err != nil {
			return nil, err
		}
		if len(recent) == 0 {
			continue
		}

		all, err := c.sales(ctx, token, s.ID, "")
		if err != nil {
			return nil, err
		}
		wrapper, err := build(s, all, to)
		if err != nil {
			return nil, err
		}
		out = append(out, wrapper)
	}
	return out, nil
}

func (c *Client) sales(ctx context.Context, token, show, since string) ([]vente, error) {
	return providers.DrainPages(ctx, Name, 0, func(ctx context.Context, page int) (providers.Page[vente], error) {
		query := url.Values{"token": {token}, "spectacle": {show}, "page": {strconv.Itoa(page)}}
		if since != "" {
			query.Set("depuis", since)
		}
		var p ventesPage
		if err := c.get(ctx, "/api/ventes", query, &p); err != nil {
			return providers.Page[vente]{}, err
		}
		if err := providers.Validate(Name, p); err != nil {
			return providers.Page[vente]{}, err
		}
		return providers.Page[vente]{Items: p.Ventes, TotalPages: p.Pages}, nil
	})
}

// build maps a show and its sales. A rate sold at several amounts yields one category per
// amount, identified as "<tarif>-<amount>".
func build(s spectacle, ventes []vente, to *time.Time) (lite.EventSerieWrapper, error) {
	events := make([]lite.Event, 0, len(s.Seances))
	for _, se := range s.Seances {
		start, err := parseTime(se.Debut)
		if err != nil {
			return lite.EventSerieWrapper{}, providers.Violation(Name, "seance %s: invalid start %q", se.ID, se.Debut)
		}
		var end *time.Time
		if se.Fin != "" {
			if t, err := parseTime(se.Fin); err == nil {
				end = &t
			}
		}
		events = append(events, lite.NewEvent(se.ID, start, end))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].InternalID < events[j].InternalID })
	if len(events) == 0 {
		return lite.EventSerieWrapper{}, providers.Violation(Name, "spectacle %s has no seance", s.ID)
	}

	tarifs := make(map[string]tarif, len(s.Tarifs))
	base := make(map[string]decimal.Decimal, len(s.Tarifs))
	categories := make(map[string]lite.TicketCategory)
	for _, t := range s.Tarifs {
		price, err := utils.ToDecimal(t.Prix)
		if err != nil || price.IsNegative() {
			return lite.EventSerieWrapper{}, providers.Violation(Name, "tarif %s: invalid price %q", t.ID, t.Prix)
		}
		tarifs[t.ID] = t
		base[t.ID] = price
		cat := category(t, price)
		categories[cat.InternalID] = cat
	}

	seances := make(map[string]struct{}, len(events))
	for _, e := range events {
		seances[e.InternalID] = struct{}{}
	}

	type sold struct{ seance, category string }
	var counted []sold
	for _, v := range ventes {
		if v.Etat != "valide" {
			continue
		}
		if v.Date != "" {
			at, err := parseTime(v.Date)
			if err != nil {
				return lite.EventSerieWrapper{}, providers.Violation(Name, "vente %s: invalid date %q", v.ID, v.Date)
			}
			if !providers.Before(at, to) {
				continue
			}
		}
		t, ok := tarifs[v.Tarif]
		if !ok {
			return lite.EventSerieWrapper{}, &providers.UnmatchedTicketCategoryError{
				Provider: Name, Serie: s.ID, Ticket: v.ID, Category: v.Tarif,
			}
		}
		if _, ok := seances[v.Seance]; !ok {
			return lite.EventSerieWrapper{}, providers.Violation(Name, "vente %s references unknown seance %s", v.ID, v.Seance)
		}

		var amount *decimal.Decimal
		if d, err := utils.ToDecimal(v.Montant); err == nil {
			amount = &d
		}
		cat := category(t, providers.ResolveAmount(amount, base[t.ID]))
		categories[cat.InternalID] = cat
		counted = append(counted, sold{v.Seance, cat.InternalID})
	}

	list := make([]lite.TicketCategory, 0, len(categories))
	for _, cat := range categories {
		list = append(list, cat)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].InternalID < list[j].InternalID })

	tally := providers.NewTally(events, list)
	for _, entry := range counted {
		tally.Add(entry.seance, entry.category, 1)
	}

	var rate decimal.NullDecimal
	if tva, err := utils.ToDecimal(s.TVA); err == nil {
		rate = providers.PercentToRate(tva)
	}
	start, end := providers.Span(events, time.Time{}, time.Time{})

	return lite.EventSerieWrapper{
		Serie:      lite.NewEventSerie(s.ID, s.Nom, start, end, rate),
		Events:     events,
		Categories: list,
		Sales:      tally.Sales(),
	}, nil
}

func category(t tarif, amount decimal.Decimal) lite.TicketCategory {
	amount = lite.Amount(amount)
	description := t.Description
	return lite.NewTicketCategory(t.ID+"-"+amount.StringFixed(2), t.Nom, &description, amount)
}

func (c *Client) login(ctx context.Context) (string, error) {
	form := url.Values{"login": {c.creds.AccessKey}, "password": {c.creds.SecretKey}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/api/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp loginResponse
	if err := c.opts.DoXML(req, &resp); err != nil {
		return "", providers.Contract(Name, err)
	}
	if resp.Token == "" {
		return "", providers.Violation(Name, "login returned no token")
	}
	return resp.Token, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := httpclient.NewRequest(ctx, http.MethodGet, c.opts.BaseURL+path, query, nil)
	if err != nil {
		return err
	}
	if err := c.opts.DoXML(req, out); err != nil {
		return providers.Contract(Name, err)
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, providers.Paris)
}
