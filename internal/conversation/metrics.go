package conversation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the reply pipeline.
type Metrics struct {
	Intents    *prometheus.CounterVec
	Fallbacks  *prometheus.CounterVec
	Promotions prometheus.Counter
	Generation prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		Intents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ezyassist_intents_classified_total",
			Help: "Inbound messages by classified intent",
		}, []string{"intent"}),
		Fallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ezyassist_generative_fallbacks_total",
			Help: "Generative replies replaced by a fixed fallback, labeled by reason",
		}, []string{"reason"}),
		Promotions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ezyassist_promotions_attached_total",
			Help: "Replies that carried a registration call-to-action",
		}),
		Generation: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ezyassist_generative_seconds",
			Help:    "Latency of generative reply calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}),
	}
}

func (m *Metrics) intent(tag string) {
	if m != nil {
		m.Intents.WithLabelValues(tag).Inc()
	}
}

func (m *Metrics) fallback(reason string) {
	if m != nil {
		m.Fallbacks.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) promotion() {
	if m != nil {
		m.Promotions.Inc()
	}
}

func (m *Metrics) generation(seconds float64) {
	if m != nil {
		m.Generation.Observe(seconds)
	}
}
