package constraint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lolski/common-sub000/internal/build"
)

var cacheHitCounter = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: build.ProjectName,
	Subsystem: "constraint",
	Name:      "cache_hit_total",
	Help:      "The total number of constraint lookups served by an already compiled program.",
})
