package resolution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lolski/common-sub000/internal/build"
)

var (
	requestsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Subsystem: "resolution",
		Name:      "requests_total",
		Help:      "The total number of requests received by resolvers.",
	}, []string{"resolver"})

	answersCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Subsystem: "resolution",
		Name:      "answers_total",
		Help:      "The total number of answers sent upstream by resolvers.",
	}, []string{"resolver"})

	exhaustedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Subsystem: "resolution",
		Name:      "exhausted_total",
		Help:      "The total number of Exhausted responses sent upstream by resolvers.",
	}, []string{"resolver"})

	duplicateAnswersCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Subsystem: "resolution",
		Name:      "duplicate_answers_total",
		Help:      "The total number of candidate answers dropped because they were already produced for the request.",
	}, []string{"resolver"})

	rejectedAnswersCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Subsystem: "resolution",
		Name:      "rejected_answers_total",
		Help:      "The total number of candidate answers rejected by request constraints.",
	}, []string{"resolver"})

	recorderMergesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Subsystem: "resolution",
		Name:      "recorder_merges_total",
		Help:      "The total number of inferred answers merged into the recorder.",
	})

	queryPullDurationHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace:                       build.ProjectName,
		Subsystem:                       "resolution",
		Name:                            "query_pull_duration_ms",
		Help:                            "The time in milliseconds a query waited for one response.",
		Buckets:                         []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		NativeHistogramBucketFactor:     1.1,
		NativeHistogramMaxBucketNumber:  100,
		NativeHistogramMinResetDuration: 0,
	})
)
