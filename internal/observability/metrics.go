package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dataset pipeline.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec // labels: outcome={success,failure}
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// HTTP fetch metrics.
	FetchAttempts *prometheus.CounterVec // labels: outcome={success,error}
	FetchDuration prometheus.Histogram

	// Per-metric series metrics.
	SeriesPoints  *prometheus.GaugeVec   // labels: metric
	SeriesMissing *prometheus.CounterVec // labels: metric

	// Map snapshot metrics.
	MapSnapshots *prometheus.CounterVec // labels: product, outcome={fetched,kept_existing,missing}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-sanitize-assemble cycle.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_etl",
			Name:      "pipeline_running",
			Help:      "1 while a run is in flight, 0 otherwise.",
		}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "fetch_attempts_total",
			Help:      "Individual HTTP fetch attempts by outcome, retries included.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_etl",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of successful HTTP fetches.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		SeriesPoints: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "climate_etl",
			Name:      "series_points",
			Help:      "Points in each series after sanitization, from the latest run.",
		}, []string{"metric"}),
		SeriesMissing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "series_missing_total",
			Help:      "Runs in which a metric's series came up empty.",
		}, []string{"metric"}),
		MapSnapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_etl",
			Name:      "map_snapshots_total",
			Help:      "Map snapshot probe walks by product and terminal outcome.",
		}, []string{"product", "outcome"}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.PipelineRunning,
		m.FetchAttempts,
		m.FetchDuration,
		m.SeriesPoints,
		m.SeriesMissing,
		m.MapSnapshots,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climate_etl", Name: "runs_total"}, []string{"outcome"}),
		RunDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_etl", Name: "run_duration_seconds"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "climate_etl", Name: "pipeline_running"}),
		FetchAttempts:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climate_etl", Name: "fetch_attempts_total"}, []string{"outcome"}),
		FetchDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_etl", Name: "fetch_duration_seconds"}),
		SeriesPoints:    prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: "climate_etl", Name: "series_points"}, []string{"metric"}),
		SeriesMissing:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climate_etl", Name: "series_missing_total"}, []string{"metric"}),
		MapSnapshots:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climate_etl", Name: "map_snapshots_total"}, []string{"product", "outcome"}),
	}
}
