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

	// result is one of valid, invalid, error, not_applicable.
	CorporationLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corporation_lookups_total",
			Help: "Corporation number lookups by result",
		},
		[]string{"result"},
	)

	CorporationLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "corporation_lookup_duration_seconds",
			Help:    "Duration of outbound corporation number lookups",
			Buckets: prometheus.DefBuckets,
		},
	)

	// result is hit, miss or error.
	CorporationCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corporation_cache_requests_total",
			Help: "Corporation lookup cache requests by result",
		},
		[]string{"backend", "result"},
	)

	StaleLookupsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corporation_lookups_stale_dropped_total",
			Help: "Lookup results discarded because the field changed while they were in flight",
		},
	)

	// outcome is saved, rejected or failed.
	ProfileSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_saves_total",
			Help: "Profile details saves by outcome",
		},
		[]string{"outcome"},
	)
)
