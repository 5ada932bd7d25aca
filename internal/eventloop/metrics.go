package eventloop

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lolski/common-sub000/internal/build"
)

var (
	jobsExecutedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Subsystem: "eventloop",
		Name:      "jobs_executed_total",
		Help:      "The total number of jobs executed, per event loop.",
	}, []string{"loop"})

	delayedJobsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Subsystem: "eventloop",
		Name:      "delayed_jobs_total",
		Help:      "The total number of delayed jobs scheduled, per event loop.",
	}, []string{"loop"})

	uncaughtPanicsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Subsystem: "eventloop",
		Name:      "uncaught_panics_total",
		Help:      "The total number of jobs that panicked without recovering.",
	}, []string{"loop"})
)
