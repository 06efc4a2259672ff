package providers

import (
	"context"
	"net/http"
	"time"

	"ticketing-sync/core/httpclient"
	"ticketing-sync/core/ratelimit"
	"ticketing-sync/feature/ticketing/lite"

	"go.uber.org/zap"
)

// Client is the contract every ticketing provider implements.
type Client interface {
	// TestConnection performs the cheapest authenticated call. Failures return false, never an error.
	TestConnection(ctx context.Context) bool
	// GetEventsSeries returns the series touched since from, with their events, categories and
	// sales. Sales recorded after to, when set, are left out.
	GetEventsSeries(ctx context.Context, from time.Time, to *time.Time) ([]lite.EventSerieWrapper, error)
}

// Credentials are the opaque secrets of one connection.
type Credentials struct {
	AccessKey string
	SecretKey string
}

// Options carries the collaborators injected into a provider client.
type Options struct {
	// HTTPClient sends every request.
	HTTPClient *http.Client
	// BaseURL overrides the provider's production endpoint.
	BaseURL string
	// Limiter throttles calls. Each client instance owns its limiter.
	Limiter *ratelimit.Limiter
	// Logger receives debug output.
	Logger *zap.Logger
	// Now returns the current time.
	Now func() time.Time
}

// WithDefaults fills unset options.
func (o Options) WithDefaults(baseURL string, limiter func() *ratelimit.Limiter) Options {
	if o.HTTPClient == nil {
		o.HTTPClient = httpclient.New(60 * time.Second)
	}
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	if o.Limiter == nil {
		if limiter != nil {
			o.Limiter = limiter()
		} else {
			o.Limiter = ratelimit.Unlimited()
		}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Do sends req through the limiter and decodes a JSON response into out.
func (o Options) Do(req *http.Request, out any) error {
	release, err := o.Limiter.Wait(req.Context())
	defer release()
	if err != nil {
		return err
	}
	return httpclient.DoJSON(o.HTTPClient, req, out)
}

// DoXML sends req through the limiter and decodes an XML response into out.
func (o Options) DoXML(req *http.Request, out any) error {
	release, err := o.Limiter.Wait(req.Context())
	defer release()
	if err != nil {
		return err
	}
	return httpclient.DoXML(o.HTTPClient, req, out)
}

// Before reports whether t is within the optional upper bound.
func Before(t time.Time, to *time.Time) bool {
	return to == nil || !t.After(*to)
}
