package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stylist",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Recommendation cache lookups by result.",
	}, []string{"result"})

	computesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stylist",
		Subsystem: "cache",
		Name:      "computes_total",
		Help:      "Recommendation computations started on cache miss, by result.",
	}, []string{"result"})

	storeErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stylist",
		Subsystem: "cache",
		Name:      "store_errors_total",
		Help:      "Second level cache store failures by operation.",
	}, []string{"op"})
)
