// Package helloasso reads HelloAsso event forms through the v5 API.
package helloasso

import (
	"context"
	"errors"
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
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// Name is the provider name stored on connections.
	Name = "helloasso"
	// BaseURL is the production endpoint.
	BaseURL = "https://api.helloasso.com"

	pageSize = 100
)

// ErrInvalidCredentials is returned when the access key is not "organization-slug:client-id".
var ErrInvalidCredentials = errors.New("helloasso: access key must be <organization-slug>:<client-id>")

// NewLimiter keeps well under the documented per-client quota.
func NewLimiter() *ratelimit.Limiter {
	return ratelimit.New(4, ratelimit.Quota{Requests: 20, Window: time.Second})
}

// Client reads event forms, their tiers and their items with OAuth2 client credentials.
type Client struct {
	organization string
	opts         providers.Options
	http         *http.Client
}

// New creates a HelloAsso client. AccessKey is "organization-slug:client-id", SecretKey the client secret.
func New(creds providers.Credentials, opts providers.Options) (*Client, error) {
	slug, clientID, ok := strings.Cut(creds.AccessKey, ":")
	if !ok || slug == "" || clientID == "" || creds.SecretKey == "" {
		return nil, ErrInvalidCredentials
	}
	opts = opts.WithDefaults(BaseURL, NewLimiter)

	oauth := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: creds.SecretKey,
		TokenURL:     opts.BaseURL + "/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	// The token source outlives any single call, so it keeps a background context.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.HTTPClient)

	// oauth2 only reuses the transport; the request timeout must be carried over.
	httpClient := oauth.Client(tokenCtx)
	httpClient.Timeout = opts.HTTPClient.Timeout

	return &Client{
		organization: slug,
		opts:         opts,
		http:         httpClient,
	}, nil
}

type pagination struct {
	ContinuationToken string `json:"continuationToken"`
	TotalPages        int    `json:"totalPages"`
	PageIndex         int    `json:"pageIndex"`
}

type form struct {
	FormSlug  string     `json:"formSlug" validate:"required"`
	Title     string     `json:"title"`
	Currency  string     `json:"currency"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}

type formsPage struct {
	Data       []form     `json:"data" validate:"dive"`
	Pagination pagination `json:"pagination"`
}

type tier struct {
	ID          utils.FlexString `json:"id" validate:"required"`
	Label       string           `json:"label"`
	Description string           `json:"description"`
	Price       *int64           `json:"price" validate:"required,gte=0"`
	VATRate     *decimal.Decimal `json:"vatRate"`
}

type publicForm struct {
	Tiers []tier `json:"tiers" validate:"dive"`
}

type order struct {
	Date time.Time `json:"date"`
}

type item struct {
	ID     utils.FlexString `json:"id" validate:"required"`
	TierID utils.FlexString `json:"tierId"`
	State  string           `json:"state"`
	Order  order            `json:"order"`
}

type itemsPage struct {
	Data       []item     `json:"data" validate:"dive"`
	Pagination pagination `json:"pagination"`
}

// TestConnection fetches one page of forms.
func (c *Client) TestConnection(ctx context.Context) bool {
	var page formsPage
	query := url.Values{"pageSize": {"1"}, "formTypes": {"Event"}}
	if err := c.get(ctx, c.orgPath("/forms"), query, &page); err != nil {
		c.opts.Logger.Debug("Connection test failed", zap.String("provider", Name), zap.Error(err))
		return false
	}
	return true
}

// GetEventsSeries returns every euro event form with an item changed since from.
// Each form is one series holding one event.
func (c *Client) GetEventsSeries(ctx context.Context, from time.Time, to *time.Time) ([]lite.EventSerieWrapper, error) {
	forms, err := providers.DrainCursor(ctx, Name, func(ctx context.Context, cursor string) (providers.Page[form], error) {
		query := url.Values{"formTypes": {"Event"}, "pageSize": {strconv.Itoa(pageSize)}}
		if cursor != "" {
			query.Set("continuationToken", cursor)
		}
		var page formsPage
		if err := c.get(ctx, c.orgPath("/forms"), query, &page); err != nil {
			return providers.Page[form]{}, err
		}
		if err := providers.Validate(Name, page); err != nil {
			return providers.Page[form]{}, err
		}
		return providers.Page[form]{Items: page.Data, Next: page.Pagination.ContinuationToken}, nil
	})
	if err != nil {
		return nil, err
	}

	var out []lite.EventSerieWrapper
	for _, f := range forms {
		if !providers.DefaultScope.InCurrency(f.Currency) {
			c.opts.Logger.Debug("Skipping form outside currency scope", zap.String("provider", Name), zap.String("form", f.FormSlug), zap.String("currency", f.Currency))
			continue
		}

		touched, err := c.touched(ctx, f.FormSlug, from)
		if err != nil {
			return nil, err
		}
		if !touched {
			continue
		}

		wrapper, err := c.serie(ctx, f, to)
		if err != nil {
			return nil, err
		}
		out = append(out, wrapper)
	}
	return out, nil
}

func (c *Client) touched(ctx context.Context, slug string, from time.Time) (bool, error) {
	var page itemsPage
	query := url.Values{"from": {from.UTC().Format(time.RFC3339)}, "pageSize": {"1"}}
	if err := c.get(ctx, c.formPath(slug, "/items"), query, &page); err != nil {
		return false, err
	}
	return len(page.Data) > 0, nil
}

func (c *Client) serie(ctx context.Context, f form, to *time.Time) (lite.EventSerieWrapper, error) {
	var public publicForm
	if err := c.get(ctx, c.formPath(f.FormSlug, "/public"), nil, &public); err != nil {
		return lite.EventSerieWrapper{}, err
	}
	if err := providers.Validate(Name, public); err != nil {
		return lite.EventSerieWrapper{}, err
	}

	items, err := providers.DrainCursor(ctx, Name, func(ctx context.Context, cursor string) (providers.Page[item], error) {
		query := url.Values{"pageSize": {strconv.Itoa(pageSize)}}
		if cursor != "" {
			query.Set("continuationToken", cursor)
		}
		var page itemsPage
		if err := c.get(ctx, c.formPath(f.FormSlug, "/items"), query, &page); err != nil {
			return providers.Page[item]{}, err
		}
		if err := providers.Validate(Name, page); err != nil {
			return providers.Page[item]{}, err
		}
		return providers.Page[item]{Items: page.Data, Next: page.Pagination.ContinuationToken}, nil
	})
	if err != nil {
		return lite.EventSerieWrapper{}, err
	}

	if f.StartDate == nil {
		return lite.EventSerieWrapper{}, providers.Violation(Name, "form %s has no start date", f.FormSlug)
	}
	start := *f.StartDate
	end := start
	if f.EndDate != nil {
		end = *f.EndDate
	}
	events := []lite.Event{lite.NewEvent(f.FormSlug, start, f.EndDate)}

	categories := make([]lite.TicketCategory, 0, len(public.Tiers))
	tiers := make([]providers.TaxedPrice, 0, len(public.Tiers))
	for _, t := range public.Tiers {
		price := providers.CentsToAmount(*t.Price)
		var rate decimal.NullDecimal
		if t.VATRate != nil {
			rate = providers.PercentToRate(*t.VATRate)
		}
		tiers = append(tiers, providers.TaxedPrice{Price: price, Rate: rate})
		description := t.Description
		categories = append(categories, lite.NewTicketCategory(t.ID.String(), t.Label, &description, price))
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].InternalID < categories[j].InternalID })

	known := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		known[cat.InternalID] = struct{}{}
	}

	tally := providers.NewTally(events, categories)
	for _, it := range items {
		if !counted(it.State) || !providers.Before(it.Order.Date, to) {
			continue
		}
		if _, ok := known[it.TierID.String()]; !ok {
			return lite.EventSerieWrapper{}, &providers.UnmatchedTicketCategoryError{
				Provider: Name, Serie: f.FormSlug, Ticket: it.ID.String(), Category: it.TierID.String(),
			}
		}
		tally.Add(f.FormSlug, it.TierID.String(), 1)
	}

	return lite.EventSerieWrapper{
		Serie:      lite.NewEventSerie(f.FormSlug, f.Title, start, end, providers.InferTaxRate(tiers)),
		Events:     events,
		Categories: categories,
		Sales:      tally.Sales(),
	}, nil
}

// counted reports whether an item in state holds a valid ticket.
func counted(state string) bool {
	switch state {
	case "Processed", "Registered":
		return true
	default:
		return false
	}
}

func (c *Client) orgPath(suffix string) string {
	return "/v5/organizations/" + url.PathEscape(c.organization) + suffix
}

func (c *Client) formPath(slug, suffix string) string {
	return c.orgPath("/forms/Event/" + url.PathEscape(slug) + suffix)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := httpclient.NewRequest(ctx, http.MethodGet, c.opts.BaseURL+path, query, nil)
	if err != nil {
		return err
	}
	release, err := c.opts.Limiter.Wait(ctx)
	defer release()
	if err != nil {
		return err
	}
	if err := httpclient.DoJSON(c.http, req, out); err != nil {
		return providers.Contract(Name, err)
	}
	return nil
}
