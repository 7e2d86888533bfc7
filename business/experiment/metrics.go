package experiment

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ExperimentsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "experiment_created_total",
			Help: "Count of experiments created.",
		},
	)

	AssignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_assignments_total",
			Help: "Count of variant assignments by experiment and variant.",
		},
		[]string{"experiment", "variant"},
	)

	ConversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_conversions_total",
			Help: "Count of recorded conversions by experiment and variant.",
		},
		[]string{"experiment", "variant"},
	)

	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "experiment_analyses_total",
			Help: "Count of analysis runs by experiment.",
		},
		[]string{"experiment"},
	)
)

func init() {
	prometheus.MustRegister(
		ExperimentsCreatedTotal,
		AssignmentsTotal,
		ConversionsTotal,
		AnalysesTotal,
	)
}
