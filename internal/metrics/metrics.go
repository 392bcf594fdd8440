// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthAttempts counts login and registration outcomes. method is one of
	// password, register, google_callback, google_direct, google_one_tap,
	// link_google.
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgate_auth_attempts_total",
			Help: "Authentication attempts by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgate_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	JWKSRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authgate_jwks_refresh_total",
			Help: "Google signing key refreshes by outcome",
		},
		[]string{"outcome"},
	)
)

func ObserveAuth(method string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	AuthAttempts.WithLabelValues(method, outcome).Inc()
}
