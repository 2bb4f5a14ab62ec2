package reconciler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PassMetrics tracks reconciliation passes and the operations they issue.
var PassMetrics = struct {
	OperationsTotal *prometheus.CounterVec
	PassesTotal     *prometheus.CounterVec
	PassDuration    *prometheus.HistogramVec
}{
	OperationsTotal: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ictsc_reconciler_operations_total",
			Help: "Total number of reconciliation decisions, split by resource and operation",
		},
		[]string{"resource", "operation"},
	),
	PassesTotal: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ictsc_reconciler_passes_total",
			Help: "Total number of reconciliation passes, split by pass and result",
		},
		[]string{"pass", "result"},
	),
	PassDuration: promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ictsc_reconciler_pass_duration_seconds",
			Help:    "Duration of reconciliation passes in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"pass"},
	),
}

func recordOperation(resource ResourceType, operation Operation) {
	PassMetrics.OperationsTotal.WithLabelValues(string(resource), string(operation)).Inc()
}

func recordPass(pass string, seconds float64, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}

	PassMetrics.PassesTotal.WithLabelValues(pass, result).Inc()
	PassMetrics.PassDuration.WithLabelValues(pass).Observe(seconds)
}
