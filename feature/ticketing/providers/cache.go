package providers

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"ticketing-sync/feature/ticketing/models"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"
)

// Factory builds a client for one connection.
type Factory func(system models.TicketingSystem) (Client, error)

type cachedClient struct {
	client      Client
	fingerprint string
	built       time.Time
}

// ClientCache keeps one client per connection so limiter state survives between runs.
// Entries are rebuilt when credentials change or the TTL elapses.
type ClientCache struct {
	ttl     time.Duration
	build   Factory
	now     func() time.Time
	mu      sync.RWMutex
	clients map[string]cachedClient
	sf      singleflight.Group
}

// NewClientCache creates a cache. A zero ttl disables caching.
func NewClientCache(ttl time.Duration, build Factory) *ClientCache {
	return &ClientCache{
		ttl:     ttl,
		build:   build,
		now:     time.Now,
		clients: make(map[string]cachedClient),
	}
}

// Get returns the cached client of system or builds one.
func (c *ClientCache) Get(ctx context.Context, system models.TicketingSystem) (Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.ttl <= 0 {
		return c.build(system)
	}

	fp := fingerprint(system)

	// Fast path
	if client, ok := c.lookup(system.ID, fp); ok {
		return client, nil
	}

	result, err, _ := c.sf.Do(system.ID+":"+fp, func() (interface{}, error) {
		if client, ok := c.lookup(system.ID, fp); ok {
			return client, nil
		}

		client, err := c.build(system)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.clients[system.ID] = cachedClient{client: client, fingerprint: fp, built: c.now()}
		c.mu.Unlock()
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(Client), nil
}

// Invalidate drops the client of a connection.
func (c *ClientCache) Invalidate(systemID string) {
	c.mu.Lock()
	delete(c.clients, systemID)
	c.mu.Unlock()
}

func (c *ClientCache) lookup(id, fp string) (Client, bool) {
	c.mu.RLock()
	entry, ok := c.clients[id]
	c.mu.RUnlock()

	if !ok || entry.fingerprint != fp || c.now().Sub(entry.built) > c.ttl {
		return nil, false
	}
	return entry.client, true
}

// fingerprint identifies the credentials without keeping them in memory as map keys.
func fingerprint(system models.TicketingSystem) string {
	h := blake3.New()
	_, _ = h.Write([]byte(system.Name))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(system.APIAccessKey))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(system.SecretKey()))
	return hex.EncodeToString(h.Sum(nil)[:16])
}
