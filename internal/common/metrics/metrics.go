// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// CompletionAttempts counts every HTTP attempt against the chat-completion endpoint.
	// outcome is "success" or an error code.
	CompletionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_attempts_total",
			Help: "Chat-completion attempts by outcome",
		},
		[]string{"outcome"},
	)

	CompletionRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "completion_retries_total",
			Help: "Chat-completion attempts that were retried after a transient failure",
		},
	)

	CompletionCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_cache_total",
			Help: "Completion cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	PlanningResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planning_results_total",
			Help: "Activity plans by source (model, fallback, failed)",
		},
		[]string{"source"},
	)

	PlanningDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planning_duration_seconds",
			Help:    "End-to-end planning duration in seconds",
			Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120, 360},
		},
		[]string{"source"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP API requests by path and status",
		},
		[]string{"path", "status"},
	)
)
