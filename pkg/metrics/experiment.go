package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the analysis HTTP handler
	AnalyzeLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "experiment_analyze_latency_seconds",
		Help:    "Latency of experiment analysis handler",
		Buckets: prometheus.DefBuckets,
	})

	// Total number of variant assignments served over HTTP
	AssignmentRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "experiment_assignment_requests_total",
		Help: "Total number of assignment requests",
	})
)

func Init() {
	prometheus.MustRegister(
		AnalyzeLatency,
		AssignmentRequests,
	)
}
