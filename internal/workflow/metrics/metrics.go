package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the workflow module.
type Metrics struct {
	// Successful transitions by edge
	Transitions *prometheus.CounterVec

	// Refused transitions by edge and denial kind
	Denials *prometheus.CounterVec

	// Concurrent-transition conflicts
	Conflicts prometheus.Counter

	// Full transition latency including evidence gathering and persistence
	TransitionLatency prometheus.Histogram
}

// New creates a new Metrics instance with all workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cedrus_workflow_transitions_total",
			Help: "Total successful audit status transitions by edge",
		}, []string{"from", "to"}),

		Denials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cedrus_workflow_denials_total",
			Help: "Total refused transitions by edge and denial kind",
		}, []string{"from", "to", "kind"}), // kind: "invalid_edge", "permission", "guard"

		Conflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cedrus_workflow_conflicts_total",
			Help: "Total transitions lost to a concurrent writer",
		}),

		TransitionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cedrus_workflow_transition_duration_seconds",
			Help:    "Duration of full transition execution including evidence gathering",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementTransition records a successful transition.
func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

// IncrementDenial records a refused transition.
func (m *Metrics) IncrementDenial(from, to, kind string) {
	if m != nil {
		m.Denials.WithLabelValues(from, to, kind).Inc()
	}
}

// IncrementConflict records a lost race against a concurrent transition.
func (m *Metrics) IncrementConflict() {
	if m != nil {
		m.Conflicts.Inc()
	}
}

// ObserveTransitionLatency records the total transition duration.
func (m *Metrics) ObserveTransitionLatency(d time.Duration) {
	if m != nil {
		m.TransitionLatency.Observe(d.Seconds())
	}
}
