package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// PipelineMetrics collects Prometheus metrics for pipeline runs.
type PipelineMetrics struct {
	logger   *logrus.Logger
	registry *prometheus.Registry

	recordsProcessed *prometheus.CounterVec
	recordsRejected  prometheus.Counter
	recordsImputed   prometheus.Counter
	recordsDeduped   prometheus.Counter
	anomaliesFlagged *prometheus.CounterVec
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
}

// NewPipelineMetrics creates and registers the pipeline metric set on a
// fresh registry.
func NewPipelineMetrics(logger *logrus.Logger) *PipelineMetrics {
	if logger == nil {
		logger = logrus.New()
	}

	registry := prometheus.NewRegistry()

	m := &PipelineMetrics{
		logger:   logger,
		registry: registry,
		recordsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agridata",
			Name:      "records_processed_total",
			Help:      "Validated records processed, by reading type.",
		}, []string{"reading_type"}),
		recordsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agridata",
			Name:      "records_rejected_total",
			Help:      "Raw records excluded by schema validation.",
		}),
		recordsImputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agridata",
			Name:      "records_imputed_total",
			Help:      "Missing raw values filled by the cleaner.",
		}),
		recordsDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agridata",
			Name:      "records_deduplicated_total",
			Help:      "Duplicate records collapsed by the cleaner.",
		}),
		anomaliesFlagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agridata",
			Name:      "anomalies_flagged_total",
			Help:      "Readings flagged anomalous, by reading type.",
		}, []string{"reading_type"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agridata",
			Name:      "runs_total",
			Help:      "Pipeline runs, by outcome.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agridata",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	registry.MustRegister(
		m.recordsProcessed,
		m.recordsRejected,
		m.recordsImputed,
		m.recordsDeduped,
		m.anomaliesFlagged,
		m.runsTotal,
		m.runDuration,
	)

	return m
}

// Handler returns the HTTP handler exposing the registry.
func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRun updates run-level counters.
func (m *PipelineMetrics) RecordRun(status string, duration time.Duration) {
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(duration.Seconds())
}

// RecordCounts updates the per-batch counters.
func (m *PipelineMetrics) RecordCounts(processedByType map[string]int, anomaliesByType map[string]int, rejected, imputed, deduplicated int) {
	for rt, n := range processedByType {
		m.recordsProcessed.WithLabelValues(rt).Add(float64(n))
	}
	for rt, n := range anomaliesByType {
		m.anomaliesFlagged.WithLabelValues(rt).Add(float64(n))
	}
	m.recordsRejected.Add(float64(rejected))
	m.recordsImputed.Add(float64(imputed))
	m.recordsDeduped.Add(float64(deduplicated))
}
