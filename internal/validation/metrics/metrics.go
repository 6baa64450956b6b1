package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the validation pipeline.
type Metrics struct {
	// Pipeline stage latencies: text_extraction, structured_extraction, rules
	StageLatency *prometheus.HistogramVec

	// Completed runs by verdict
	RunOutcome *prometheus.CounterVec

	// Reported inconsistencies by field and severity
	Inconsistencies *prometheus.CounterVec

	// Failed runs by error code
	RunFailures *prometheus.CounterVec

	// End-to-end run latency
	RunLatency prometheus.Histogram
}

// New registers the validation metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the validation metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docval_validation_stage_duration_seconds",
			Help:    "Duration of validation pipeline stages",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),

		RunOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docval_validation_runs_total",
			Help: "Completed validation runs by status",
		}, []string{"status"}),

		Inconsistencies: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docval_validation_inconsistencies_total",
			Help: "Inconsistencies reported by field and severity",
		}, []string{"field", "severity"}),

		RunFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docval_validation_failures_total",
			Help: "Validation runs that ended in an error, by error code",
		}, []string{"code"}),

		RunLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "docval_validation_duration_seconds",
			Help:    "Duration of a full validation run including extraction",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// ObserveStageLatency records the duration of one pipeline stage.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncrementOutcome records a completed run.
func (m *Metrics) IncrementOutcome(status string) {
	if m != nil {
		m.RunOutcome.WithLabelValues(status).Inc()
	}
}

// IncrementInconsistency records one reported inconsistency.
func (m *Metrics) IncrementInconsistency(field, severity string) {
	if m != nil {
		m.Inconsistencies.WithLabelValues(field, severity).Inc()
	}
}

// IncrementFailure records a run that failed with the given error code.
func (m *Metrics) IncrementFailure(code string) {
	if m != nil {
		m.RunFailures.WithLabelValues(code).Inc()
	}
}

// ObserveRunLatency records the total run duration.
func (m *Metrics) ObserveRunLatency(d time.Duration) {
	if m != nil {
		m.RunLatency.Observe(d.Seconds())
	}
}
