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

	ReadinessScoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readiness_scores_total",
			Help: "Readiness scores produced, by band and confidence",
		},
		[]string{"band", "confidence"},
	)

	ReadinessScoreValue = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "readiness_overall_score",
			Help:    "Distribution of overall readiness scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ReadinessScoringFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readiness_scoring_failures_total",
			Help: "Scoring calls that produced no score, by reason",
		},
		[]string{"reason"},
	)

	ReadinessValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readiness_validation_failures_total",
			Help: "Rejected answers by input field",
		},
		[]string{"field"},
	)

	InferenceOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readiness_inference_outcomes_total",
			Help: "Inference adapter outcomes (high, medium, low, unavailable, timeout, skipped)",
		},
		[]string{"outcome"},
	)

	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "readiness_inference_duration_seconds",
			Help:    "Time spent waiting on the inference collaborator",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		},
	)

	InferenceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readiness_inference_cache_lookups_total",
			Help: "Inference cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	BenchmarkRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readiness_benchmark_refreshes_total",
			Help: "Benchmark table refresh attempts by source and status",
		},
		[]string{"source", "status"},
	)

	BenchmarkCohorts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "readiness_benchmark_cohorts",
			Help: "Number of cohorts in the active benchmark table",
		},
	)
)
