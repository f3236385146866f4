package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/county-data-pipeline/internal/config"
	"github.com/couchcryptid/county-data-pipeline/internal/domain"
	"github.com/couchcryptid/county-data-pipeline/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// SourceFetcher returns the raw contents of a source location.
type SourceFetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// GeometryProvider returns the county features of a boundary feed.
type GeometryProvider interface {
	Features(ctx context.Context, url string) ([]domain.GeoFeature, error)
}

// SnapshotPublisher ships a finished snapshot downstream.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap *domain.Snapshot) error
}

// Options configures a Pipeline.
type Options struct {
	Catalog          *config.Catalog
	GeometryURL      string
	GeometryIDPrefix string
	RefreshInterval  time.Duration
	DatasetCacheSize int

	// Clock drives the refresh timer. Nil means the real clock.
	Clock clockwork.Clock
	// NewID names snapshots. Nil means random UUIDs.
	NewID func() string
}

// Pipeline orchestrates the fetch-parse-join-analyze cycle and holds the
// latest snapshot.
type Pipeline struct {
	fetcher   SourceFetcher
	geometry  GeometryProvider
	publisher SnapshotPublisher
	opts      Options
	cache     *datasetCache
	logger    *slog.Logger
	metrics   *observability.Metrics
	snapshot  atomic.Pointer[domain.Snapshot]
}

// New creates a Pipeline. publisher may be nil to disable publishing.
func New(fetcher SourceFetcher, geometry GeometryProvider, publisher SnapshotPublisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Pipeline{
		fetcher:   fetcher,
		geometry:  geometry,
		publisher: publisher,
		opts:      opts,
		cache:     newDatasetCache(opts.DatasetCacheSize),
		logger:    logger,
		metrics:   metrics,
	}
}

// Snapshot returns the latest snapshot, or nil before the first successful cycle.
func (p *Pipeline) Snapshot() *domain.Snapshot {
	return p.snapshot.Load()
}

// CheckReadiness returns nil once a snapshot is available, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.snapshot.Load() == nil {
		return errors.New("no snapshot has been loaded yet")
	}
	return nil
}

// Run loads a snapshot immediately and then once per refresh interval until
// the context is cancelled. A failed cycle keeps the previous snapshot and
// is retried with exponential backoff.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "refresh_interval", p.opts.RefreshInterval, "sources", len(p.opts.Catalog.Sources))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := initialBackoff

	for {
		wait := p.opts.RefreshInterval
		if _, err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("load cycle failed, keeping previous snapshot", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !sleepWithContext(ctx, p.opts.Clock, wait) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// RunOnce performs one complete cycle and swaps the resulting snapshot in.
// On error the current snapshot is left untouched.
func (p *Pipeline) RunOnce(ctx context.Context) (*domain.Snapshot, error) {
	start := p.opts.Clock.Now()

	snap, err := p.build(ctx)
	if err != nil {
		p.metrics.CycleFailures.Inc()
		return nil, err
	}

	p.snapshot.Store(snap)
	p.metrics.SnapshotsBuilt.Inc()
	p.metrics.CycleDuration.Observe(p.opts.Clock.Since(start).Seconds())
	p.logger.Info("snapshot loaded",
		"snapshot_id", snap.ID,
		"choropleths", len(snap.Choropleths),
		"scatters", len(snap.Scatters),
		"trends", len(snap.Trends),
		"warnings", len(snap.Warnings()),
	)

	p.publish(ctx, snap)
	return snap, nil
}

func (p *Pipeline) build(ctx context.Context) (*domain.Snapshot, error) {
	cat := p.opts.Catalog

	loaded, err := p.loadSources(ctx)
	if err != nil {
		return nil, err
	}

	var features []domain.GeoFeature
	if len(cat.Choropleths) > 0 {
		all, err := p.geometry.Features(ctx, p.opts.GeometryURL)
		if err != nil {
			return nil, fmt.Errorf("load geometry: %w", err)
		}
		features = domain.FilterByIDPrefix(all, p.opts.GeometryIDPrefix)
		p.metrics.GeometryFeatures.Set(float64(len(features)))
	}

	summaries := make([]domain.DatasetSummary, 0, len(cat.Sources))
	for _, src := range cat.Sources {
		summaries = append(summaries, loaded[src.Name].summary)
	}

	choropleths := make([]domain.ChoroplethView, 0, len(cat.Choropleths))
	for _, spec := range cat.Choropleths {
		view := domain.NewChoroplethView(spec.Name, features, loaded[spec.Source].dataset, spec.Field, spec.MinCoverage)
		p.metrics.MatchedFeatures.WithLabelValues(spec.Name).Set(float64(view.Join.MatchedCount))
		p.metrics.JoinCoverage.WithLabelValues(spec.Name).Set(view.Join.Coverage())
		if view.Warning != nil {
			p.metrics.CoverageWarnings.WithLabelValues(spec.Name).Inc()
			p.logger.Warn("join coverage below threshold",
				"view", spec.Name,
				"matched", view.Warning.Matched,
				"total", view.Warning.Total,
				"min_coverage", view.Warning.MinCoverage,
			)
		}
		choropleths = append(choropleths, view)
	}

	scatters := make([]domain.ScatterView, 0, len(cat.Scatters))
	for _, spec := range cat.Scatters {
		view := domain.NewScatterView(spec.Name,
			loaded[spec.X].dataset, spec.XField,
			loaded[spec.Y].dataset, spec.YField,
			domain.AnalyzeOptions{Outliers: spec.Outliers},
		)
		if view.Failure != "" {
			p.metrics.AnalysisFailures.WithLabelValues(spec.Name).Inc()
			p.logger.Warn("scatter analysis failed", "view", spec.Name, "points", view.Series.Len(), "error", view.Failure)
		}
		scatters = append(scatters, view)
	}

	trends := make([]domain.TrendSeries, 0, len(cat.Trends))
	for _, spec := range cat.Trends {
		ts := *loaded[spec.Source].trend
		ts.Name = spec.Name
		trends = append(trends, ts)
	}

	return domain.NewSnapshot(p.opts.NewID(), summaries, choropleths, scatters, trends), nil
}

// loadedSource is one parsed source: a dataset or a trend series.
type loadedSource struct {
	dataset *domain.CountyDataset
	trend   *domain.TrendSeries
	summary domain.DatasetSummary
}

// loadSources fetches and parses every catalog source concurrently. Any
// failure fails the whole cycle.
func (p *Pipeline) loadSources(ctx context.Context) (map[string]loadedSource, error) {
	sources := p.opts.Catalog.Sources
	results := make([]loadedSource, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			ls, err := p.loadSource(gctx, src)
			if err != nil {
				p.metrics.SourceFailures.WithLabelValues(src.Name).Inc()
				return fmt.Errorf("source %s: %w", src.Name, err)
			}
			results[i] = ls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]loadedSource, len(sources))
	for i, src := range sources {
		out[src.Name] = results[i]
	}
	return out, nil
}

func (p *Pipeline) loadSource(ctx context.Context, src config.SourceSpec) (loadedSource, error) {
	data, err := p.fetcher.Fetch(ctx, src.Location)
	if err != nil {
		return loadedSource{}, err
	}

	key := datasetKey(src.Name, data)
	if ls, ok := p.cache.get(key); ok {
		p.metrics.DatasetCache.WithLabelValues("hit").Inc()
		return ls, nil
	}
	p.metrics.DatasetCache.WithLabelValues("miss").Inc()

	layout, err := src.SourceLayout()
	if err != nil {
		return loadedSource{}, err
	}

	ls := loadedSource{summary: domain.DatasetSummary{Source: src.Name, Kind: layout.Kind}}
	var stats domain.ParseStats
	if layout.Kind == domain.LayoutTrend {
		var ts domain.TrendSeries
		ts, stats, err = layout.LoadTrend(src.Name, string(data))
		if err != nil {
			return loadedSource{}, err
		}
		ls.trend = &ts
		ls.summary.Entries = len(ts.Points)
	} else {
		ls.dataset, stats, err = layout.LoadDataset(src.Name, string(data), src.Scale)
		if err != nil {
			return loadedSource{}, err
		}
		ls.summary.Entries = ls.dataset.Len()
		ls.summary.Collisions = ls.dataset.Collisions()
		p.metrics.DuplicateKeys.WithLabelValues(src.Name).Set(float64(ls.dataset.Collisions()))
	}
	ls.summary.Stats = stats

	p.metrics.RowsParsed.WithLabelValues(src.Name).Add(float64(stats.Records))
	p.metrics.RowsDropped.WithLabelValues(src.Name).Add(float64(stats.Dropped))
	p.metrics.RowsSkipped.WithLabelValues(src.Name).Add(float64(stats.Skipped))
	p.logger.Info("source parsed",
		"source", src.Name,
		"layout", layout.Kind,
		"records", stats.Records,
		"dropped", stats.Dropped,
		"skipped", stats.Skipped,
		"entries", ls.summary.Entries,
		"collisions", ls.summary.Collisions,
	)

	p.cache.put(key, ls)
	return ls, nil
}

func (p *Pipeline) publish(ctx context.Context, snap *domain.Snapshot) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, snap); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish snapshot failed", "snapshot_id", snap.ID, "error", err)
		return
	}
	p.metrics.SnapshotsPublished.Inc()
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
