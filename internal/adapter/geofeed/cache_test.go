package geofeed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/county-data-pipeline/internal/domain"
	"github.com/couchcryptid/county-data-pipeline/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls    int
	features []domain.GeoFeature
	err      error
}

func (p *countingProvider) Features(_ context.Context, _ string) ([]domain.GeoFeature, error) {
	p.calls++
	return p.features, p.err
}

func newTestCache(inner Provider, clock clockwork.Clock) *CachedProvider {
	return NewCachedProvider(inner, time.Hour, clock, observability.NewMetricsForTesting(), testLogger())
}

func TestCachedProvider_HitWithinTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := &countingProvider{features: []domain.GeoFeature{{ID: "13001", Name: "Appling"}}}
	cached := newTestCache(inner, clock)

	f1, err := cached.Features(context.Background(), "feed")
	require.NoError(t, err)
	clock.Advance(59 * time.Minute)
	f2, err := cached.Features(context.Background(), "feed")
	require.NoError(t, err)

	assert.Equal(t, f1, f2)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedProvider_RefetchAfterTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := &countingProvider{features: []domain.GeoFeature{{ID: "13001"}}}
	cached := newTestCache(inner, clock)

	_, err := cached.Features(context.Background(), "feed")
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = cached.Features(context.Background(), "feed")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_KeyedByURL(t *testing.T) {
	inner := &countingProvider{features: []domain.GeoFeature{{ID: "13001"}}}
	cached := newTestCache(inner, clockwork.NewFakeClock())

	_, _ = cached.Features(context.Background(), "a")
	_, _ = cached.Features(context.Background(), "b")
	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_ServesExpiredOnError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := &countingProvider{features: []domain.GeoFeature{{ID: "13001", Name: "Appling"}}}
	cached := newTestCache(inner, clock)

	_, err := cached.Features(context.Background(), "feed")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	inner.features, inner.err = nil, errors.New("timeout")

	got, err := cached.Features(context.Background(), "feed")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Appling", got[0].Name)
}

func TestCachedProvider_ErrorWithoutEntry(t *testing.T) {
	inner := &countingProvider{err: errors.New("timeout")}
	cached := newTestCache(inner, clockwork.NewFakeClock())

	_, err := cached.Features(context.Background(), "feed")
	require.Error(t, err)

	inner.err = nil
	inner.features = []domain.GeoFeature{{ID: "13001"}}
	got, err := cached.Features(context.Background(), "feed")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, inner.calls, "failures are not cached")
}
