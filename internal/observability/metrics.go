package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "county_pipeline"

// Metrics holds the Prometheus counters, histograms, and gauges for the load pipeline.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	CycleDuration   prometheus.Histogram
	CycleFailures   prometheus.Counter
	SnapshotsBuilt  prometheus.Counter

	// Parse metrics, labelled by source.
	RowsParsed     *prometheus.CounterVec
	RowsDropped    *prometheus.CounterVec
	RowsSkipped    *prometheus.CounterVec
	DuplicateKeys  *prometheus.GaugeVec
	DatasetCache   *prometheus.CounterVec // labels: result={hit,miss}
	SourceFailures *prometheus.CounterVec

	// Join and analysis metrics, labelled by view.
	MatchedFeatures  *prometheus.GaugeVec
	JoinCoverage     *prometheus.GaugeVec
	CoverageWarnings *prometheus.CounterVec
	AnalysisFailures *prometheus.CounterVec

	// Geometry feed metrics.
	GeometryFetches  *prometheus.CounterVec // labels: outcome={success,error,cached}
	GeometryFeatures prometheus.Gauge

	SnapshotsPublished prometheus.Counter
	PublishErrors      prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-parse-join-analyze cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CycleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_failures_total",
			Help:      "Load cycles that failed and kept the previous snapshot.",
		}),
		SnapshotsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_built_total",
			Help:      "Snapshots swapped in after a successful cycle.",
		}),
		RowsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Records produced by the parser per source.",
		}, []string{"source"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows dropped for a missing or invalid numeric field per source.",
		}, []string{"source"}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Header and aggregate rows skipped per source.",
		}, []string{"source"}),
		DuplicateKeys: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "duplicate_keys",
			Help:      "County keys overwritten by a later row in the latest build.",
		}, []string{"source"}),
		DatasetCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_cache_total",
			Help:      "Dataset cache lookups by result.",
		}, []string{"result"}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Fetch or parse failures per source.",
		}, []string{"source"}),
		MatchedFeatures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "matched_features",
			Help:      "Features joined to a dataset value per choropleth view.",
		}, []string{"view"}),
		JoinCoverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "join_coverage_ratio",
			Help:      "Matched fraction of features per choropleth view.",
		}, []string{"view"}),
		CoverageWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coverage_warnings_total",
			Help:      "Joins whose coverage fell below the view threshold.",
		}, []string{"view"}),
		AnalysisFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_failures_total",
			Help:      "Scatter views whose series was degenerate.",
		}, []string{"view"}),
		GeometryFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geometry_fetches_total",
			Help:      "Geometry feed requests by outcome.",
		}, []string{"outcome"}),
		GeometryFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geometry_features",
			Help:      "Features left after the ID prefix filter.",
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Snapshots written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Snapshot publish failures.",
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PipelineRunning,
		m.CycleDuration,
		m.CycleFailures,
		m.SnapshotsBuilt,
		m.RowsParsed,
		m.RowsDropped,
		m.RowsSkipped,
		m.DuplicateKeys,
		m.DatasetCache,
		m.SourceFailures,
		m.MatchedFeatures,
		m.JoinCoverage,
		m.CoverageWarnings,
		m.AnalysisFailures,
		m.GeometryFetches,
		m.GeometryFeatures,
		m.SnapshotsPublished,
		m.PublishErrors,
	}
}
