package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Attempt outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeRateLimited = "rate_limited"
	OutcomeEmpty       = "empty"
	OutcomeUnparseable = "unparseable"
	OutcomeError       = "error"
	OutcomeCanceled    = "canceled"
)

var (
	once sync.Once

	// ModelAttemptsTotal counts one increment per remote model attempt.
	ModelAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "therapy",
		Subsystem: "advisor",
		Name:      "model_attempts_total",
		Help:      "Remote model attempts, labeled by operation, model id and outcome.",
	}, []string{"op", "model", "outcome"})

	// FallbackTotal counts calls answered offline after every model was exhausted.
	FallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "therapy",
		Subsystem: "advisor",
		Name:      "fallback_total",
		Help:      "Calls answered by the offline analyzer or canned answers.",
	}, []string{"op"})

	ModelAttemptDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "therapy",
		Subsystem: "advisor",
		Name:      "model_attempt_duration_seconds",
		Help:      "Wall time of a single remote model attempt.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"op"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "therapy",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, labeled by method and status code.",
	}, []string{"method", "status"})

	HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "therapy",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "therapy",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

// Register registers all collectors with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ModelAttemptsTotal,
			FallbackTotal,
			ModelAttemptDurationSeconds,
			HTTPRequestsTotal,
			HTTPRequestsInFlight,
			HTTPRequestDurationSeconds,
		)
	})
}
