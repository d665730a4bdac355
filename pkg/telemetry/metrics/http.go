package metrics

import (
	"strconv"
	"time"

	"getgsa/onboarding/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks API traffic.
//
// Metrics:
//   - getgsa_onboarding_http_requests_total: requests by route, method, status code
//   - getgsa_onboarding_http_request_duration_seconds: request duration by route
//   - getgsa_onboarding_http_rate_limited_total: requests rejected by the rate limiter
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     prometheus.Counter
}

// NewHTTPMetrics creates and registers HTTP metrics with the provided registry.
func NewHTTPMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"route", "method", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of API requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"route"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_rate_limited_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
		),
	}

	registry.MustRegister(hm.requestsTotal, hm.requestDuration, hm.rateLimited)
	return hm
}

// RecordRequest records one served request.
func (hm *HTTPMetrics) RecordRequest(route, method string, status int, duration time.Duration) {
	hm.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	hm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordRateLimited counts one rejected request.
func (hm *HTTPMetrics) RecordRateLimited() {
	hm.rateLimited.Inc()
}
