package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	recommendationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Total number of recommendation queries",
		},
	)

	recommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_candidates",
			Help:    "Candidates returned by the geo query per recommendation",
			Buckets: []float64{0, 1, 2, 5, 10, 12, 25, 50},
		},
	)

	ledgerOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Bookmark and rating operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	commentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comments_total",
			Help: "Comment submissions by outcome",
		},
		[]string{"outcome"},
	)

	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the write rate limiter",
		},
		[]string{"route"},
	)

	dependencyHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_health",
			Help: "Health status of dependencies (1 = healthy, 0 = unhealthy)",
		},
		[]string{"dependency"},
	)
)

func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func RecordRecommendation(candidates int) {
	recommendationsTotal.Inc()
	recommendationCandidates.Observe(float64(candidates))
}

// RecordLedger counts a bookmark or rating call. outcome is "ok" or an error class.
func RecordLedger(operation, outcome string) {
	ledgerOpsTotal.WithLabelValues(operation, outcome).Inc()
}

func RecordComment(outcome string) {
	commentsTotal.WithLabelValues(outcome).Inc()
}

func RecordRateLimited(route string) {
	rateLimitedTotal.WithLabelValues(route).Inc()
}

func SetDependencyHealth(dependency string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	dependencyHealth.WithLabelValues(dependency).Set(v)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
