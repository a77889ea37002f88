package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// mirror engine.
type Metrics struct {
	UnitsFetched prometheus.Counter
	UnitsSkipped prometheus.Counter
	UnitsFailed  prometheus.Counter

	InflightFetches prometheus.Gauge
	MirrorRunning   prometheus.Gauge

	FetchDuration prometheus.Histogram
	FetchBytes    prometheus.Histogram
	PassDuration  prometheus.Histogram

	AnnounceErrors prometheus.Counter
}

// NewMetrics creates and registers all mirror metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.UnitsFetched,
		m.UnitsSkipped,
		m.UnitsFailed,
		m.InflightFetches,
		m.MirrorRunning,
		m.FetchDuration,
		m.FetchBytes,
		m.PassDuration,
		m.AnnounceErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UnitsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_mirror",
			Name:      "units_fetched_total",
			Help:      "Total station-year units fetched and stored successfully.",
		}),
		UnitsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_mirror",
			Name:      "units_skipped_total",
			Help:      "Total units skipped because they were still fresh under the refresh policy.",
		}),
		UnitsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_mirror",
			Name:      "units_failed_total",
			Help:      "Total units whose fetch, sink write, or store update failed.",
		}),
		InflightFetches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_mirror",
			Name:      "inflight_fetches",
			Help:      "Number of fetches currently in flight across the worker pool.",
		}),
		MirrorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_mirror",
			Name:      "pass_running",
			Help:      "1 while a mirror pass is active, 0 otherwise.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_mirror",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one unit's fetch-write-record cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		FetchBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_mirror",
			Name:      "fetch_bytes",
			Help:      "Uncompressed size of fetched station-year payloads.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_mirror",
			Name:      "pass_duration_seconds",
			Help:      "Duration of a complete mirror pass over the inventory.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600, 14400},
		}),
		AnnounceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_mirror",
			Name:      "announce_errors_total",
			Help:      "Total provenance events that could not be published.",
		}),
	}
}
