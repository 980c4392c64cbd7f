package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pendingSaves = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "stylist",
		Name:      "pending_saves",
		Help:      "Accepted recommendations waiting to be persisted.",
	})

	acceptedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stylist",
		Name:      "accepted_total",
		Help:      "Accepted recommendations by outcome.",
	}, []string{"outcome"})
)
