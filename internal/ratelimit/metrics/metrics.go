package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejections prometheus.Counter
	Checks     *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Rejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "docval_ratelimit_rejections_total",
			Help: "Requests rejected because the client exceeded its rate limit",
		}),
		Checks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docval_ratelimit_checks_total",
			Help: "Rate limit checks by outcome (allowed, rejected, error)",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementCheck(outcome string) {
	if m == nil {
		return
	}
	m.Checks.WithLabelValues(outcome).Inc()
	if outcome == "rejected" {
		m.Rejections.Inc()
	}
}
