package action

import (
	"time"

	id "carehub/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess       = "success"
	outcomeHandlerError  = "handler_error"
	outcomeDenied        = "denied"
	outcomeUnknownAction = "unknown_action"
	outcomeAuditError    = "audit_error"
)

// Metrics holds Prometheus metrics for action dispatch.
type Metrics struct {
	Executions *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewMetrics registers dispatcher metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Executions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carehub_action_executions_total",
			Help: "Total number of action invocations, by action and outcome",
		}, []string{"action", "outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carehub_action_duration_seconds",
			Help:    "Wall time of action invocations including audit writes",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
	}
}

func (m *Metrics) observe(actionID id.ActionID, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	// Unknown ids come from callers; don't let them mint label values.
	label := string(actionID)
	if outcome == outcomeUnknownAction {
		label = "unknown"
	}
	m.Executions.WithLabelValues(label, outcome).Inc()
	m.Duration.WithLabelValues(label).Observe(elapsed.Seconds())
}
