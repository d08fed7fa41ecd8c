package publisher

import (
	audit "carehub/pkg/platform/audit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit publishing.
type Metrics struct {
	EventsEmitted   *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	PersistDuration prometheus.Histogram
}

// NewMetrics registers the audit publisher metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carehub_audit_events_emitted_total",
			Help: "Total number of audit events persisted, by phase and category",
		}, []string{"phase", "category"}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carehub_audit_persist_failures_total",
			Help: "Total number of audit events the sink rejected, by phase",
		}, []string{"phase"}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "carehub_audit_persist_duration_seconds",
			Help:    "Time spent persisting one audit event",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncEventsEmitted increments the emitted counter.
func (m *Metrics) IncEventsEmitted(phase audit.Phase, category audit.EventCategory) {
	m.EventsEmitted.WithLabelValues(string(phase), string(category)).Inc()
}

// IncPersistFailures increments the failure counter.
func (m *Metrics) IncPersistFailures(phase audit.Phase) {
	m.PersistFailures.WithLabelValues(string(phase)).Inc()
}

// ObservePersistDuration records a successful write latency.
func (m *Metrics) ObservePersistDuration(seconds float64) {
	m.PersistDuration.Observe(seconds)
}
