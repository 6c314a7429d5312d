package research

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_chat_pipeline_runs_total",
		Help: "Total number of research pipeline runs by outcome",
	},
		[]string{"outcome"},
	)

	StageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "research_chat_pipeline_stage_failures_total",
		Help: "Total number of research pipeline stage failures",
	},
		[]string{"stage"},
	)

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "research_chat_pipeline_stage_duration_seconds",
		Help:    "Duration of research pipeline stages in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	},
		[]string{"stage"},
	)
)
