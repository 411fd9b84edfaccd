package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	submissionsCreated    *prometheus.CounterVec
	submissionsScored     prometheus.Counter
	regradesRequested     prometheus.Counter
	gradingJobsProcessed  *prometheus.CounterVec
	gradingDuration       prometheus.Histogram
	hintsGenerated        prometheus.Counter
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API
// and the grading worker.
func RegisterMetrics() {
	registerOnce.Do(func() {
		submissionsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gradebench",
			Name:      "submissions_created_total",
			Help:      "Total number of submissions created.",
		}, []string{"language"})

		submissionsScored = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gradebench",
			Name:      "submissions_scored_total",
			Help:      "Total number of submissions scored.",
		})

		regradesRequested = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gradebench",
			Name:      "regrades_requested_total",
			Help:      "Total number of re-grade requests accepted.",
		})

		gradingJobsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gradebench",
			Name:      "grading_jobs_processed_total",
			Help:      "Total number of grading jobs processed, by terminal status.",
		}, []string{"status"})

		gradingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gradebench",
			Name:      "grading_duration_seconds",
			Help:      "End-to-end duration of grading runs.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		})

		hintsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gradebench",
			Name:      "hints_generated_total",
			Help:      "Total number of AI hints generated.",
		})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gradebench",
			Name:      "http_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gradebench",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		prometheus.MustRegister(
			submissionsCreated,
			submissionsScored,
			regradesRequested,
			gradingJobsProcessed,
			gradingDuration,
			hintsGenerated,
			httpRequestsTotal,
			httpLatencySeconds,
		)
	})
}

// SubmissionsCreated exposes the per-language submission counter.
func SubmissionsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsCreated
}

// SubmissionsScored exposes the scored submission counter.
func SubmissionsScored() prometheus.Counter {
	RegisterMetrics()
	return submissionsScored
}

// RegradesRequested exposes the re-grade request counter.
func RegradesRequested() prometheus.Counter {
	RegisterMetrics()
	return regradesRequested
}

// GradingJobsProcessed exposes the per-status grading job counter.
func GradingJobsProcessed() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingJobsProcessed
}

// GradingDuration exposes the grading duration histogram.
func GradingDuration() prometheus.Histogram {
	RegisterMetrics()
	return gradingDuration
}

// HintsGenerated exposes the AI hint counter.
func HintsGenerated() prometheus.Counter {
	RegisterMetrics()
	return hintsGenerated
}

// HTTPRequests exposes the API request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the API latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}
