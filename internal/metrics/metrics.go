// Package metrics exposes Prometheus collectors for the archiver.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	jobsProcessedTotal   *prometheus.CounterVec
	jobDurationSeconds   *prometheus.HistogramVec
	activeWorkers        prometheus.Gauge
	queueDepth           *prometheus.GaugeVec
	rateLimitWaitSeconds prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		jobsProcessedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lawvault_jobs_processed_total",
				Help: "Total number of jobs processed, labeled by job type and outcome.",
			},
			[]string{"job_type", "outcome"},
		)

		jobDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lawvault_job_duration_seconds",
				Help:    "Histogram of job execution times, labeled by job type.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"job_type"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "lawvault_active_workers",
				Help: "Number of workers currently processing a job.",
			},
		)

		queueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lawvault_queue_depth",
				Help: "Number of jobs in the queue, labeled by status.",
			},
			[]string{"status"},
		)

		rateLimitWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lawvault_rate_limit_wait_seconds",
				Help:    "Histogram of time spent waiting on the fetch rate limiter.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveJob records one processed job with its outcome and duration.
func ObserveJob(jobType, outcome string, duration time.Duration) {
	jobsProcessedTotal.WithLabelValues(jobType, outcome).Inc()
	jobDurationSeconds.WithLabelValues(jobType).Observe(duration.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	activeWorkers.Dec()
}

// SetQueueDepth records the current number of jobs in one status.
func SetQueueDepth(status string, count int) {
	queueDepth.WithLabelValues(status).Set(float64(count))
}

// ObserveRateLimitWait records the duration of a rate limiter wait.
func ObserveRateLimitWait(duration time.Duration) {
	rateLimitWaitSeconds.Observe(duration.Seconds())
}
