package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projectflow_http_requests_total",
		Help: "Total number of gateway HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "projectflow_http_request_duration_seconds",
		Help:    "Duration of gateway HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	apiCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projectflow_api_calls_total",
		Help: "Total calls to the remote ProjectFlow API",
	}, []string{"operation", "result"})

	apiCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "projectflow_api_call_duration_seconds",
		Help:    "Duration of remote ProjectFlow API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})

	cachedProjects = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "projectflow_cached_projects",
		Help: "Number of projects currently held in the local cache",
	})

	overdueDeadlines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "projectflow_overdue_deadlines",
		Help: "Projects whose deadline has passed, as of the last alert scan",
	})

	renewalsDueSoon = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "projectflow_renewals_due_soon",
		Help: "Projects whose renewal date is inside the warning window, as of the last alert scan",
	})

	guardDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projectflow_guard_decisions_total",
		Help: "Access guard outcomes by decision kind",
	}, []string{"decision"})
)

// ObserveHTTPRequest records a gateway HTTP request metric.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAPICall records one remote API call with a success/failure result label.
func ObserveAPICall(operation, result string, duration time.Duration) {
	apiCallsTotal.WithLabelValues(operation, result).Inc()
	apiCallDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// SetCachedProjects records the current cache size.
func SetCachedProjects(n int) {
	cachedProjects.Set(float64(n))
}

// SetAlertCounts records the result of an alert scan.
func SetAlertCounts(overdue, dueSoon int) {
	overdueDeadlines.Set(float64(overdue))
	renewalsDueSoon.Set(float64(dueSoon))
}

// ObserveGuardDecision counts an access guard outcome.
func ObserveGuardDecision(decision string) {
	guardDecisions.WithLabelValues(decision).Inc()
}
