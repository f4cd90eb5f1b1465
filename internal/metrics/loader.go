package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Row outcomes.
const (
	OutcomeLoaded   = "loaded"
	OutcomeRejected = "rejected"
)

// LoaderMetrics records warehouse load activity per table.
type LoaderMetrics struct {
	rows     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewLoaderMetrics registers the loader metrics on the provided registerer.
// A nil registerer yields a no-op collector.
func NewLoaderMetrics(reg prometheus.Registerer) *LoaderMetrics {
	if reg == nil {
		return &LoaderMetrics{}
	}
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openledger_load_rows_total",
		Help: "Rows processed by the warehouse loader.",
	}, []string{"table", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openledger_load_duration_seconds",
		Help:    "Duration of table loads in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"table"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openledger_load_failures_total",
		Help: "Table loads aborted by an error.",
	}, []string{"table"})
	reg.MustRegister(rows, duration, failures)
	return &LoaderMetrics{
		rows:     rows,
		duration: duration,
		failures: failures,
	}
}

// AddRows adds n rows with the given outcome for table.
func (m *LoaderMetrics) AddRows(table, outcome string, n int) {
	if m == nil || m.rows == nil || n <= 0 {
		return
	}
	m.rows.WithLabelValues(normalizeLabel(table), outcome).Add(float64(n))
}

// ObserveDuration records how long the load of table took.
func (m *LoaderMetrics) ObserveDuration(table string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(table)).Observe(d.Seconds())
}

// IncFailure counts an aborted table load.
func (m *LoaderMetrics) IncFailure(table string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(table)).Inc()
}

func normalizeLabel(table string) string {
	if table == "" {
		return "unknown"
	}
	return table
}
