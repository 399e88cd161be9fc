package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CompileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowsmith_compile_total",
		Help: "Total compilation runs, labelled by terminal outcome.",
	}, []string{"outcome"})

	RepairCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsmith_repair_cycles_total",
		Help: "Total repair cycles across all runs.",
	})

	SelectionAmbiguous = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsmith_selection_ambiguous_total",
		Help: "Total runs ending in a clarification request.",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flowsmith_stage_duration_ms",
		Help:    "Per-stage duration in milliseconds, labelled by state.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	}, []string{"state"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowsmith_events_dropped_total",
		Help: "Transition events dropped because the emitter buffer was full.",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowsmith_cache_requests_total",
		Help: "Workflow cache lookups, labelled by result (hit, miss, error).",
	}, []string{"result"})
)
