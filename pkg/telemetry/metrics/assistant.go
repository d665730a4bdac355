package metrics

import (
	"time"

	"getgsa/onboarding/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AssistantMetrics tracks calls to the AI collaborators.
//
// Metrics:
//   - getgsa_onboarding_assistant_calls_total: calls by collaborator and outcome
//   - getgsa_onboarding_assistant_call_duration_seconds: call latency
//   - getgsa_onboarding_assistant_errors_total: errors by collaborator and type
type AssistantMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	errorsTotal  *prometheus.CounterVec
}

// NewAssistantMetrics creates and registers collaborator metrics.
func NewAssistantMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AssistantMetrics {
	am := &AssistantMetrics{
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "assistant_calls_total",
			Help:      "Total number of AI collaborator calls",
		}, []string{"collaborator", "outcome"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "assistant_call_duration_seconds",
			Help:      "Duration of AI collaborator calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}, []string{"collaborator"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "assistant_errors_total",
			Help:      "Total number of AI collaborator errors",
		}, []string{"collaborator", "error_type"}),
	}

	registry.MustRegister(am.callsTotal, am.callDuration, am.errorsTotal)
	return am
}

// RecordCall records one call.
func (am *AssistantMetrics) RecordCall(collaborator, outcome string, duration time.Duration) {
	am.callsTotal.WithLabelValues(collaborator, outcome).Inc()
	am.callDuration.WithLabelValues(collaborator).Observe(duration.Seconds())
}

// RecordError records one error.
func (am *AssistantMetrics) RecordError(collaborator, errorType string) {
	am.errorsTotal.WithLabelValues(collaborator, errorType).Inc()
}
