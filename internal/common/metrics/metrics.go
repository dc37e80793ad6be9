// internal/common/metrics/metrics.go
package metrics

import (
	"time"

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

	MatchPairsScored = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_pairs_scored",
			Help:    "School-program pairs scored per match",
			Buckets: prometheus.ExponentialBuckets(10, 4, 7),
		},
		[]string{"strategy"},
	)

	MatchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_results_total",
			Help: "Shortlisted results by tier",
		},
		[]string{"strategy", "tier"},
	)

	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_duration_seconds",
			Help:    "Time spent scoring and selecting, excluding catalog reads",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"strategy"},
	)
)

// ObserveMatch records one completed match run.
func ObserveMatch(strategy string, pairs int, tiers map[string]int, elapsed time.Duration) {
	MatchPairsScored.WithLabelValues(strategy).Observe(float64(pairs))
	MatchDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	for tier, n := range tiers {
		MatchResults.WithLabelValues(strategy, tier).Add(float64(n))
	}
}
