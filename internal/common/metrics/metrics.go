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
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_turns_total",
			Help: "Chat turns processed, by outcome (matches, no_matches, fallback)",
		},
		[]string{"outcome"},
	)

	CriteriaExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_criteria_extractions_total",
			Help: "Search criteria extractions, by source (llm, rules)",
		},
		[]string{"source"},
	)

	Disambiguations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_disambiguations_total",
			Help: "Investor disambiguation outcomes (investor, entrepreneur, failed, skipped)",
		},
		[]string{"verdict"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connector_llm_requests_total",
			Help: "Completion service requests, by provider and status",
		},
		[]string{"provider", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connector_llm_request_duration_seconds",
			Help:    "Completion service request latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "connector_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
		[]string{"name"},
	)

	MatchesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "connector_matches_returned",
			Help:    "Matches exposed per turn",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "connector_sessions_active",
			Help: "Sessions held by the in-memory session store",
		},
	)
)
