package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is shared by every relay of a process; series are labelled by
// destination.
type Metrics struct {
	Relayed  *prometheus.CounterVec
	Failures *prometheus.CounterVec
}

// NewMetrics registers the relay metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Relayed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carehub_audit_relayed_total",
			Help: "Audit events delivered from the outbox, by destination",
		}, []string{"destination"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "carehub_audit_relay_failures_total",
			Help: "Relay passes stopped by a failed delivery, by destination",
		}, []string{"destination"}),
	}
}

func (m *Metrics) addRelayed(destination string, n int) {
	if m == nil {
		return
	}
	m.Relayed.WithLabelValues(destination).Add(float64(n))
}

func (m *Metrics) incFailures(destination string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(destination).Inc()
}
