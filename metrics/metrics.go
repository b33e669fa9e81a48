// Package metrics provides Prometheus metrics for the catalog server.
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - rate_limiter_buckets_total: Gauge of tracked client buckets
//
// Catalog metrics:
//   - catalog_sessions_active: Gauge of live sessions by status
//   - catalog_fetch_total: Counter of upstream fetches by result
//   - catalog_fetch_duration_seconds: Histogram of upstream fetch latency
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch results used as the catalog_fetch_total label
const (
	FetchSuccess = "success"
	FetchFailure = "failure"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	SessionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_sessions_active",
			Help: "Live catalog sessions by status",
		},
		[]string{"status"},
	)

	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_fetch_total",
			Help: "Upstream catalog fetches by result",
		},
		[]string{"result"},
	)

	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_fetch_duration_seconds",
			Help:    "Upstream catalog fetch latency",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(FetchTotal)
	prometheus.MustRegister(FetchDuration)
}

// ObserveFetch records one settled upstream fetch
func ObserveFetch(duration time.Duration, err error) {
	result := FetchSuccess
	if err != nil {
		result = FetchFailure
	}
	FetchTotal.WithLabelValues(result).Inc()
	FetchDuration.Observe(duration.Seconds())
}

// SetSessionCounts replaces the per status session gauge
func SetSessionCounts(counts map[string]int) {
	SessionsActive.Reset()
	for status, n := range counts {
		SessionsActive.WithLabelValues(status).Set(float64(n))
	}
}
