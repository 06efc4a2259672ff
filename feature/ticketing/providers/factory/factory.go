// Package factory maps a connection name to its provider client.
package factory

import (
	"fmt"
	"net/http"
	"sort"

	"ticketing-sync/feature/ticketing/models"
	"ticketing-sync/feature/ticketing/providers"
	"ticketing-sync/feature/ticketing/providers/billetweb"
	"ticketing-sync/feature/ticketing/providers/helloasso"
	"ticketing-sync/feature/ticketing/providers/mapado"
	"ticketing-sync/feature/ticketing/providers/shotgun"
	"ticketing-sync/feature/ticketing/providers/soticket"
	"ticketing-sync/feature/ticketing/providers/supersoniks"

	"go.uber.org/zap"
)

// Constructor builds one provider client.
type Constructor func(creds providers.Credentials, opts providers.Options) (providers.Client, error)

var constructors = map[string]Constructor{
	models.ProviderBilletweb: func(c providers.Credentials, o providers.Options) (providers.Client, error) {
		return billetweb.New(c, o), nil
	},
	models.ProviderHelloAsso: func(c providers.Credentials, o providers.Options) (providers.Client, error) {
		return helloasso.New(c, o)
	},
	models.ProviderMapado: func(c providers.Credentials, o providers.Options) (providers.Client, error) {
		return mapado.New(c, o), nil
	},
	models.ProviderShotgun: func(c providers.Credentials, o providers.Options) (providers.Client, error) {
		return shotgun.New(c, o), nil
	},
	models.ProviderSoTicket: func(c providers.Credentials, o providers.Options) (providers.Client, error) {
		return soticket.New(c, o), nil
	},
	models.ProviderSupersoniks: func(c providers.Credentials, o providers.Options) (providers.Client, error) {
		return supersoniks.New(c, o), nil
	},
}

// UnsupportedProviderError is returned for a connection whose name matches no provider.
type UnsupportedProviderError struct {
	Name string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported ticketing provider %q", e.Name)
}

// Names lists the supported providers.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Factory builds provider clients sharing one HTTP client and logger.
type Factory struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
	// BaseURLs overrides endpoints per provider name.
	BaseURLs map[string]string
}

// New returns a Factory.
func New(httpClient *http.Client, logger *zap.Logger) *Factory {
	return &Factory{HTTPClient: httpClient, Logger: logger}
}

// Build creates the client of a connection. Each call gets a fresh limiter.
func (f *Factory) Build(system models.TicketingSystem) (providers.Client, error) {
	ctor, ok := constructors[system.Name]
	if !ok {
		return nil, &UnsupportedProviderError{Name: system.Name}
	}

	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := providers.Options{
		HTTPClient: f.HTTPClient,
		BaseURL:    f.BaseURLs[system.Name],
		Logger:     logger.With(zap.String("provider", system.Name), zap.String("ticketing_system_id", system.ID)),
	}
	creds := providers.Credentials{AccessKey: system.APIAccessKey, SecretKey: system.SecretKey()}

	client, err := ctor(creds, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s client: %w", system.Name, err)
	}
	return client, nil
}
