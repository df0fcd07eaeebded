// Package metrics exposes the Prometheus collectors of the API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolhub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schoolhub_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolhub_auth_attempts_total",
		Help: "Login and password reset attempts by kind and result",
	}, []string{"kind", "result"})

	enrollmentChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolhub_enrollment_changes_total",
		Help: "Enrollment ledger writes by operation",
	}, []string{"operation"})

	rateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "schoolhub_rate_limited_requests_total",
		Help: "Requests rejected by the per client rate limit",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAuth counts a login or reset attempt. result is "success" or "failure".
func ObserveAuth(kind, result string) {
	authAttempts.WithLabelValues(kind, result).Inc()
}

// ObserveEnrollment counts a ledger write
func ObserveEnrollment(operation string) {
	enrollmentChanges.WithLabelValues(operation).Inc()
}

// IncRateLimited counts a throttled request
func IncRateLimited() {
	rateLimited.Inc()
}
