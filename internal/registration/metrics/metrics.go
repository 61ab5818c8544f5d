package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the registration flow.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	RefusedAttempts   *prometheus.CounterVec
	DirectCreations   prometheus.Counter
	TransitionLatency *prometheus.HistogramVec
}

// New registers and returns registration metrics collectors.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ezyassist_registration_transitions_total",
			Help: "Registration state transitions, labeled by audit action",
		}, []string{"action"}),
		RefusedAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ezyassist_registration_refused_total",
			Help: "Registration attempts refused, labeled by domain error code",
		}, []string{"code"}),
		DirectCreations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ezyassist_registration_direct_submissions_total",
			Help: "Form submissions that created a record without a prior setup step",
		}),
		TransitionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ezyassist_registration_transition_seconds",
			Help:    "Latency of registration transitions including the store transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementTransition(action string) {
	m.Transitions.WithLabelValues(action).Inc()
}

func (m *Metrics) IncrementRefused(code string) {
	m.RefusedAttempts.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementDirectCreation() {
	m.DirectCreations.Inc()
}

func (m *Metrics) ObserveTransition(operation string, seconds float64) {
	m.TransitionLatency.WithLabelValues(operation).Observe(seconds)
}
