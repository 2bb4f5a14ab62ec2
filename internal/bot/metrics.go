package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// InteractionMetrics tracks the interactions served by the bot.
var InteractionMetrics = struct {
	InteractionsTotal *prometheus.CounterVec
	RedeploysTotal    *prometheus.CounterVec
	ScheduledSyncs    *prometheus.CounterVec
}{
	InteractionsTotal: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ictsc_bot_interactions_total",
			Help: "Total number of interactions handled, split by command and result",
		},
		[]string{"command", "result"},
	),
	RedeploysTotal: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ictsc_bot_redeploys_total",
			Help: "Total number of redeploy requests, split by problem and result",
		},
		[]string{"problem_code", "result"},
	),
	ScheduledSyncs: promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ictsc_bot_scheduled_syncs_total",
			Help: "Total number of scheduled syncs, split by result",
		},
		[]string{"result"},
	),
}

func recordInteraction(command, result string) {
	InteractionMetrics.InteractionsTotal.WithLabelValues(command, result).Inc()
}

func recordRedeploy(problemCode string, err error) {
	InteractionMetrics.RedeploysTotal.WithLabelValues(problemCode, resultLabel(err)).Inc()
}

func recordScheduledSync(err error) {
	InteractionMetrics.ScheduledSyncs.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}

	return "success"
}
