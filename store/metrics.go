package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are purely observational counters/gauges exposed for operators.
// Nothing in the store's control flow reads them back, and none of their
// inputs (wall-clock durations) ever influence a persisted value or a
// syscall return — using time.Now() here is safe precisely because these
// numbers never cross back into consensus state.
type Metrics struct {
	JobsQueued       prometheus.Gauge
	ResultsWritten   *prometheus.CounterVec
	StoreOpDuration  *prometheus.HistogramVec
}

// NewMetrics constructs a fresh, unregistered metrics set. Callers that want
// these exposed on a /metrics endpoint register them against their own
// prometheus.Registerer; store never registers against the global default
// registry itself, so multiple DB instances in one test binary do not
// collide.
func NewMetrics() *Metrics {
	return &Metrics{
		JobsQueued: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "capcore_jobs_queued",
			Help: "Number of jobs currently queued (enqueued, not yet terminal).",
		}),
		ResultsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capcore_results_written_total",
			Help: "Total ResultRecords written, by terminal status.",
		}, []string{"status"}),
		StoreOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capcore_store_op_duration_seconds",
			Help:    "Latency of store operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

// Collectors returns every collector in m, for bulk registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.JobsQueued, m.ResultsWritten, m.StoreOpDuration}
}

func (m *Metrics) ObserveStoreOp(op string, start time.Time) {
	m.StoreOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func nowMetric() time.Time { return time.Now() }
