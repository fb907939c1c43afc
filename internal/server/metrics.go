package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "timesolver_solves_total",
		Help: "Completed solve requests by terminal status.",
	}, []string{"status"})

	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "timesolver_solve_duration_seconds",
		Help:    "Wall-clock duration of synchronous solves.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	jobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "timesolver_jobs_submitted_total",
		Help: "Asynchronous jobs accepted.",
	})
)
