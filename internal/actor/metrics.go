package actor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lolski/common-sub000/internal/build"
)

var (
	actorsCreatedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Subsystem: "actor",
		Name:      "created_total",
		Help:      "The total number of actors created.",
	})

	jobFailuresCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Subsystem: "actor",
		Name:      "job_failures_total",
		Help:      "The total number of actor jobs that failed and were reported to the exception hook.",
	})

	droppedMessagesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Subsystem: "actor",
		Name:      "dropped_messages_total",
		Help:      "The total number of messages dropped because the actor's event loop was closed.",
	})
)
