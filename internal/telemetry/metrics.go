package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы одной попытки для caddy_attempts_total.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	// OutcomeAborted — context попытки отменён (таймаут или отмена вызова).
	OutcomeAborted = "aborted"
)

// Metrics — набор Prometheus метрик вызовов.
type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	attempts    *prometheus.HistogramVec
	attemptsAll *prometheus.CounterVec
	retries     *prometheus.CounterVec
}

// NewMetrics регистрирует метрики в reg.
// nil — prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caddy_invocations_total",
			Help: "Total number of action invocations",
		}, []string{"action", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caddy_invocation_duration_seconds",
			Help:    "Invocation duration including all attempts",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		attempts: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caddy_invocation_attempts",
			Help:    "Attempts used per invocation",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		}, []string{"action"}),
		attemptsAll: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caddy_attempts_total",
			Help: "Total number of attempts by outcome",
		}, []string{"action", "outcome"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caddy_retries_total",
			Help: "Total number of retries",
		}, []string{"action"}),
	}
}

// ObserveInvocation учитывает завершённый вызов.
func (m *Metrics) ObserveInvocation(action, status string, duration time.Duration, attempts int) {
	m.invocations.WithLabelValues(action, status).Inc()
	m.duration.WithLabelValues(action).Observe(duration.Seconds())
	if attempts > 0 {
		m.attempts.WithLabelValues(action).Observe(float64(attempts))
	}
}

// ObserveAttempt учитывает одну попытку.
func (m *Metrics) ObserveAttempt(action, outcome string) {
	m.attemptsAll.WithLabelValues(action, outcome).Inc()
}

// IncRetry учитывает повтор.
func (m *Metrics) IncRetry(action string) {
	m.retries.WithLabelValues(action).Inc()
}
