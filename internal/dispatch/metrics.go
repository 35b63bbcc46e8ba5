package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess     = "success"
	outcomeRateLimited = "rate_limited"
	outcomeError       = "error"
)

// Metrics tracks provider dispatch behaviour.
//
// Metrics:
//   - job_bot_provider_attempts_total: vendor calls by provider and outcome
//   - job_bot_provider_latency_seconds: vendor call latency
//   - job_bot_provider_cooldowns_total: cooldowns recorded per provider
//   - job_bot_dispatch_exhausted_total: requests that found no usable provider
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	attempts  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	cooldowns *prometheus.CounterVec
	exhausted prometheus.Counter
}

// NewMetrics creates and registers dispatch metrics with the provided registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "job_bot",
				Name:      "provider_attempts_total",
				Help:      "Total number of vendor calls by provider and outcome",
			},
			[]string{"provider", "operation", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "job_bot",
				Name:      "provider_latency_seconds",
				Help:      "Vendor call latency in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"provider"},
		),
		cooldowns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "job_bot",
				Name:      "provider_cooldowns_total",
				Help:      "Total number of cooldowns recorded after repeated rate limits",
			},
			[]string{"provider"},
		),
		exhausted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "job_bot",
				Name:      "dispatch_exhausted_total",
				Help:      "Total number of requests that found every provider unavailable",
			},
		),
	}

	registerer.MustRegister(m.attempts, m.latency, m.cooldowns, m.exhausted)

	return m
}

func (m *Metrics) observeAttempt(provider, operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(provider, operation, outcome).Inc()
	m.latency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) observeCooldown(provider string) {
	if m == nil {
		return
	}
	m.cooldowns.WithLabelValues(provider).Inc()
}

func (m *Metrics) observeExhausted() {
	if m == nil {
		return
	}
	m.exhausted.Inc()
}
