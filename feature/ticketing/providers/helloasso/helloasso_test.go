package helloasso

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ticketing-sync/core/ratelimit"
	"ticketing-sync/feature/ticketing/lite"
	"ticketing-sync/feature/ticketing/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prefix = "/v5/organizations/my-asso"

type fixture struct {
	items        []string
	tokenFetches atomic.Int32
}

func newServer(t *testing.T, f *fixture) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path == "/oauth2/token" {
			if err := r.ParseForm(); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if r.PostForm.Get("client_secret") != "secret" || r.PostForm.Get("client_id") != "client" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error": "invalid_client"}`))
				return
			}
			f.tokenFetches.Add(1)
			_, _ = w.Write([]byte(`{"access_token": "tok", "token_type": "bearer", "expires_in": 1800}`))
			return
		}

		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		switch r.URL.Path {
		case prefix + "/forms":
			if q.Get("continuationToken") == "" {
				_, _ = w.Write([]byte(`{"data": [
					{"formSlug": "gala", "title": "Gala de printemps", "currency": "EUR",
					 "startDate": "2025-03-01T20:00:00+01:00", "endDate": "2025-03-01T23:00:00+01:00"},
					{"formSlug": "concert-usd", "title": "Tour", "currency": "USD", "startDate": "2025-03-01T20:00:00Z"}
				], "pagination": {"continuationToken": "c1"}}`))
				return
			}
			// the final page repeats its token
			_, _ = w.Write([]byte(`{"data": [
				{"formSlug": "old", "title": "Old", "currency": "EUR", "startDate": "2024-01-01T20:00:00Z"}
			], "pagination": {"continuationToken": "c1"}}`))
		case prefix + "/forms/Event/gala/public":
			_, _ = w.Write([]byte(`{"tiers": [
				{"id": 12, "label": "Enfant", "price": 1000, "vatRate": 5.5},
				{"id": 11, "label": "Adulte", "description": "Accès salle", "price": 2500, "vatRate": 5.5}
			]}`))
		case prefix + "/forms/Event/gala/items", prefix + "/forms/Event/old/items":
			if q.Get("from") != "" {
				if r.URL.Path == prefix+"/forms/Event/gala/items" {
					_, _ = w.Write([]byte(`{"data": [{"id": 1, "tierId": 11, "state": "Processed"}], "pagination": {}}`))
				} else {
					_, _ = w.Write([]byte(`{"data": [], "pagination": {}}`))
				}
				return
			}
			page := 0
			if q.Get("continuationToken") != "" {
				page = 1
			}
			_, _ = w.Write([]byte(f.items[page]))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func defaultFixture() *fixture {
	return &fixture{items: []string{
		`{"data": [
			{"id": 1, "tierId": 11, "state": "Processed", "order": {"date": "2025-02-01T10:00:00+01:00"}},
			{"id": 2, "tierId": 12, "state": "Refunded", "order": {"date": "2025-02-01T10:00:00+01:00"}}
		], "pagination": {"continuationToken": "i1"}}`,
		`{"data": [
			{"id": 3, "tierId": 11, "state": "Registered", "order": {"date": "2025-02-02T10:00:00+01:00"}}
		], "pagination": {"continuationToken": "i1"}}`,
	}}
}

func newClient(t *testing.T, srv *httptest.Server, access, secret string) *Client {
	t.Helper()
	c, err := New(providers.Credentials{AccessKey: access, SecretKey: secret}, providers.Options{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		Limiter:    ratelimit.Unlimited(),
	})
	require.NoError(t, err)
	return c
}

func TestGetEventsSeries(t *testing.T) {
	f := defaultFixture()
	srv := newServer(t, f)
	client := newClient(t, srv, "my-asso:client", "secret")

	wrappers, err := client.GetEventsSeries(context.Background(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	require.Len(t, wrappers, 1)

	w := wrappers[0]
	assert.Equal(t, "gala", w.Serie.InternalID)
	assert.Equal(t, "Gala de printemps", w.Serie.Name)
	assert.True(t, w.Serie.StartAt.Equal(time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)))
	assert.True(t, w.Serie.EndAt.Equal(time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)))
	require.True(t, w.Serie.TaxRate.Valid)
	assert.Equal(t, "0.055", w.Serie.TaxRate.Decimal.String())

	require.Len(t, w.Events, 1)
	assert.Equal(t, "gala", w.Events[0].InternalID)

	require.Len(t, w.Categories, 2)
	assert.Equal(t, "11", w.Categories[0].InternalID)
	assert.Equal(t, "25", w.Categories[0].Price.String())
	require.NotNil(t, w.Categories[0].Description)
	assert.Equal(t, "Accès salle", *w.Categories[0].Description)
	assert.Equal(t, "10", w.Categories[1].Price.String())

	assert.Equal(t, []lite.EventCategoryTickets{
		{EventInternalID: "gala", CategoryInternalID: "11", Total: 2},
		{EventInternalID: "gala", CategoryInternalID: "12", Total: 0},
	}, w.Sales)
	require.NoError(t, w.Validate())

	assert.Equal(t, int32(1), f.tokenFetches.Load())
}

func TestGetEventsSeries_UpperBound(t *testing.T) {
	srv := newServer(t, defaultFixture())
	client := newClient(t, srv, "my-asso:client", "secret")
	to := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	wrappers, err := client.GetEventsSeries(context.Background(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), &to)
	require.NoError(t, err)
	require.Len(t, wrappers, 1)
	assert.Equal(t, 1, wrappers[0].Sales[0].Total)
}

func TestGetEventsSeries_UnknownTier(t *testing.T) {
	f := defaultFixture()
	f.items = []string{`{"data": [{"id": 9, "tierId": 99, "state": "Processed"}], "pagination": {}}`}
	srv := newServer(t, f)
	client := newClient(t, srv, "my-asso:client", "secret")

	_, err := client.GetEventsSeries(context.Background(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil)

	var unmatched *providers.UnmatchedTicketCategoryError
	require.ErrorAs(t, err, &unmatched)
	assert.Equal(t, "99", unmatched.Category)
}

func TestTestConnection(t *testing.T) {
	srv := newServer(t, defaultFixture())

	assert.True(t, newClient(t, srv, "my-asso:client", "secret").TestConnection(context.Background()))
	assert.False(t, newClient(t, srv, "my-asso:client", "wrong").TestConnection(context.Background()))
}

func TestTestConnection_HonorsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/oauth2/token" {
			_, _ = w.Write([]byte(`{"access_token": "tok", "token_type": "bearer", "expires_in": 1800}`))
			return
		}
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(`{"data": [], "pagination": {}}`))
	}))
	t.Cleanup(srv.Close)

	httpClient := srv.Client()
	httpClient.Timeout = 200 * time.Millisecond
	client, err := New(providers.Credentials{AccessKey: "my-asso:client", SecretKey: "secret"}, providers.Options{
		HTTPClient: httpClient,
		BaseURL:    srv.URL,
		Limiter:    ratelimit.Unlimited(),
	})
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, client.http.Timeout)

	start := time.Now()
	assert.False(t, client.TestConnection(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestNew_InvalidCredentials(t *testing.T) {
	for _, access := range []string{"", "my-asso", ":client", "my-asso:"} {
		_, err := New(providers.Credentials{AccessKey: access, SecretKey: "secret"}, providers.Options{})
		assert.ErrorIs(t, err, ErrInvalidCredentials, access)
	}

	_, err := New(providers.Credentials{AccessKey: "my-asso:client"}, providers.Options{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
