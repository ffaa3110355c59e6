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

	AutosaveCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locker_autosave_calls_total",
			Help: "Autosave calls to the portal by kind and result",
		},
		[]string{"kind", "result"},
	)

	AutosaveRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locker_autosave_retries_total",
			Help: "Autosave attempts retried after a retryable failure",
		},
		[]string{"kind"},
	)

	AutosaveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "locker_autosave_duration_seconds",
			Help:    "Duration of an autosave call including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	AutosaveQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "locker_autosave_queue_depth",
			Help: "Pending autosave batches",
		},
	)

	NavigationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locker_navigation_transitions_total",
			Help: "Question flow transitions by direction and result",
		},
		[]string{"direction", "result"},
	)

	SubmissionsLocked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "locker_submissions_locked_total",
			Help: "Applicant records finalized and locked",
		},
	)
)
