// Package geofeed loads county boundaries from a GeoJSON FeatureCollection.
package geofeed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/county-data-pipeline/internal/domain"
	"github.com/couchcryptid/county-data-pipeline/internal/observability"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Loader returns the raw bytes at a location.
type Loader interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Provider returns the county features at a feed URL.
type Provider interface {
	Features(ctx context.Context, url string) ([]domain.GeoFeature, error)
}

// Client decodes a boundary feed into domain features, reading each
// feature's display name from a configurable property.
type Client struct {
	loader       Loader
	nameProperty string
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewClient creates a feed client. An empty nameProperty means "NAME".
func NewClient(loader Loader, nameProperty string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if nameProperty == "" {
		nameProperty = "NAME"
	}
	return &Client{
		loader:       loader,
		nameProperty: nameProperty,
		metrics:      metrics,
		logger:       logger,
	}
}

// Features fetches and decodes the feed at url.
func (c *Client) Features(ctx context.Context, url string) ([]domain.GeoFeature, error) {
	start := time.Now()
	data, err := c.loader.Fetch(ctx, url)
	if err != nil {
		c.metrics.GeometryFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geometry feed: %w", err)
	}

	features, err := Decode(data, c.nameProperty)
	if err != nil {
		c.metrics.GeometryFetches.WithLabelValues("error").Inc()
		return nil, err
	}

	c.metrics.GeometryFetches.WithLabelValues("success").Inc()
	c.logger.Info("geometry feed loaded", "url", url, "features", len(features), "duration", time.Since(start))
	return features, nil
}

// Decode parses a FeatureCollection. Features without the name property
// keep an empty name and will never match a dataset.
func Decode(data []byte, nameProperty string) ([]domain.GeoFeature, error) {
	var fc geojson.FeatureCollection
	if err := fc.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decode geometry feed: %w", err)
	}

	out := make([]domain.GeoFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		name, _ := f.Properties[nameProperty].(string)
		out = append(out, domain.GeoFeature{
			ID:       f.ID,
			Name:     name,
			Geometry: f.Geometry,
		})
	}
	return out, nil
}
