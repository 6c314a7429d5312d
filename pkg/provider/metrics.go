package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_chat_provider_calls_total",
		Help: "Total number of generative-text provider calls",
	},
		[]string{"provider", "op", "outcome"},
	)

	CallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "research_chat_provider_call_duration_seconds",
		Help:    "Duration of generative-text provider calls in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	},
		[]string{"provider", "op"},
	)
)
