package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hmpi"

// Metrics holds the Prometheus counters, histograms, and gauges for the HMPI service.
type Metrics struct {
	RowsNormalized  prometheus.Counter
	InvalidInputs   prometheus.Counter
	BatchesIngested prometheus.Counter
	SamplesScored   *prometheus.CounterVec // labels: status={Safe,Moderate Risk,High Risk}

	AnalysisDuration prometheus.Histogram
	AnalysisSize     prometheus.Histogram

	// Sink metrics.
	PublishErrors *prometheus.CounterVec // labels: sink={kafka,influx}
	BatchCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsNormalized,
		m.InvalidInputs,
		m.BatchesIngested,
		m.SamplesScored,
		m.AnalysisDuration,
		m.AnalysisSize,
		m.PublishErrors,
		m.BatchCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_normalized_total",
			Help:      "Total raw rows converted into canonical samples.",
		}),
		InvalidInputs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_inputs_total",
			Help:      "Total requests or files rejected as invalid input.",
		}),
		BatchesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_ingested_total",
			Help:      "Total upload batches persisted.",
		}),
		SamplesScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_scored_total",
			Help:      "Samples scored, by risk status.",
		}, []string{"status"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of a complete load-score-publish analysis.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		AnalysisSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_samples",
			Help:      "Number of samples per analysis.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed deliveries to downstream sinks.",
		}, []string{"sink"}),
		BatchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_cache_total",
			Help:      "Batch cache lookups by result.",
		}, []string{"result"}),
	}
}

// CacheLookup records a batch cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if hit {
		m.BatchCache.WithLabelValues("hit").Inc()
		return
	}
	m.BatchCache.WithLabelValues("miss").Inc()
}
