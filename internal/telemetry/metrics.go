// Package telemetry registers the prometheus metrics of the service.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP surface metrics, used by the server middleware.

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_hub_http_requests_total",
		Help: "Number of HTTP requests by method, path and status code.",
	}, []string{"method", "path", "code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bench_hub_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bench_hub_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})

	// Evaluation engine metrics.

	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_hub_jobs_total",
		Help: "Number of jobs by terminal status.",
	}, []string{"status"})

	InvocationAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_hub_invocation_attempts_total",
		Help: "Number of invocation attempts by provider and outcome.",
	}, []string{"provider", "outcome"})

	InvocationRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_hub_invocation_retries_total",
		Help: "Number of retried invocation attempts by provider.",
	}, []string{"provider"})

	FallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bench_hub_fallbacks_total",
		Help: "Number of fallback provider walks by fallback provider.",
	}, []string{"provider"})
)
