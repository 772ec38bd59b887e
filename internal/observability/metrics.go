package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pw_import"

// Metrics holds the Prometheus counters, histograms, and gauges for an import run.
type Metrics struct {
	RowsAppended    prometheus.Counter
	RowsPublished   prometheus.Counter
	PipelineRunning prometheus.Gauge
	Progress        prometheus.Gauge

	// Remote source metrics.
	SoundingsMissing *prometheus.CounterVec   // labels: station
	FetchRetries     prometheus.Counter
	RemoteRequests   *prometheus.CounterVec   // labels: source={wyoming,mesowest}, outcome={success,no_data,error}
	RemoteDuration   *prometheus.HistogramVec // labels: source
	SoundingCache    *prometheus.CounterVec   // labels: result={hit,miss}
}

// NewMetrics creates and registers all import metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsAppended,
		m.RowsPublished,
		m.PipelineRunning,
		m.Progress,
		m.SoundingsMissing,
		m.FetchRetries,
		m.RemoteRequests,
		m.RemoteDuration,
		m.SoundingCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_appended_total",
			Help:      "Rows appended to the master data file.",
		}),
		RowsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_published_total",
			Help:      "Rows published to the Kafka topic.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while an import run is active, 0 otherwise.",
		}),
		Progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "progress_percent",
			Help:      "Completion of the current run in percent.",
		}),
		SoundingsMissing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soundings_missing_total",
			Help:      "Sounding lookups recorded as NaN because the archive had no data.",
		}, []string{"station"}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Retries of remote fetches after an HTTP failure.",
		}),
		RemoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "Remote source requests by source and outcome.",
		}, []string{"source", "outcome"}),
		RemoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_request_duration_seconds",
			Help:      "Remote source request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		SoundingCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sounding_cache_total",
			Help:      "Sounding cache lookups by result.",
		}, []string{"result"}),
	}
}
