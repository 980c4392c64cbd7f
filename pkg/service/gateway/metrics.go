package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess   = "success"
	outcomeTransient = "transient"
	outcomePermanent = "permanent"
)

var attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stylist",
	Subsystem: "gateway",
	Name:      "attempts_total",
	Help:      "LLM consultation attempts by outcome.",
}, []string{"outcome"})
