package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for LLM provider calls.
type Metrics struct {
	// Calls by outcome: "success" or an error category
	Requests *prometheus.CounterVec

	// Call latency by prompt
	RequestLatency *prometheus.HistogramVec

	// 1 while the circuit is open
	CircuitOpen prometheus.Gauge

	// Circuit transitions: "opened", "closed"
	CircuitTransitions *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docval_llm_requests_total",
			Help: "LLM chat completion calls by outcome",
		}, []string{"outcome"}),

		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docval_llm_request_duration_seconds",
			Help:    "Duration of LLM chat completion calls",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"prompt"}),

		CircuitOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "docval_llm_circuit_open",
			Help: "Whether the LLM circuit breaker is open (1) or closed (0)",
		}),

		CircuitTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docval_llm_circuit_transitions_total",
			Help: "LLM circuit breaker state transitions",
		}, []string{"transition"}),
	}
}

func (m *Metrics) IncrementRequest(outcome string) {
	if m != nil {
		m.Requests.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveRequestLatency(prompt string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(prompt).Observe(d.Seconds())
	}
}

// CircuitOpened records the breaker opening.
func (m *Metrics) CircuitOpened() {
	if m != nil {
		m.CircuitOpen.Set(1)
		m.CircuitTransitions.WithLabelValues("opened").Inc()
	}
}

// CircuitClosed records the breaker closing.
func (m *Metrics) CircuitClosed() {
	if m != nil {
		m.CircuitOpen.Set(0)
		m.CircuitTransitions.WithLabelValues("closed").Inc()
	}
}
