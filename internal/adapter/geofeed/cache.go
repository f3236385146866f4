package geofeed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/county-data-pipeline/internal/domain"
	"github.com/couchcryptid/county-data-pipeline/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedProvider wraps a Provider with a per-URL TTL cache. When a refresh
// fails, the expired entry is served instead.
type CachedProvider struct {
	inner   Provider
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string]cachedFeed
}

type cachedFeed struct {
	features  []domain.GeoFeature
	fetchedAt time.Time
}

// NewCachedProvider creates a cache decorator around a provider.
func NewCachedProvider(inner Provider, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
		entries: make(map[string]cachedFeed),
	}
}

// Features returns the cached features for url while they are fresh.
func (c *CachedProvider) Features(ctx context.Context, url string) ([]domain.GeoFeature, error) {
	c.mu.Lock()
	e, ok := c.entries[url]
	c.mu.Unlock()

	if ok && c.clock.Since(e.fetchedAt) < c.ttl {
		c.metrics.GeometryFetches.WithLabelValues("cached").Inc()
		return e.features, nil
	}

	features, err := c.inner.Features(ctx, url)
	if err != nil {
		if ok {
			c.logger.Warn("geometry refresh failed, serving expired feed", "url", url, "age", c.clock.Since(e.fetchedAt), "error", err)
			return e.features, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.entries[url] = cachedFeed{features: features, fetchedAt: c.clock.Now()}
	c.mu.Unlock()
	return features, nil
}
