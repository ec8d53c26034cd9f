package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks analysis session activity for the /metrics endpoint.
type Metrics struct {
	SessionsStarted prometheus.Counter
	SessionsFatal   prometheus.Counter
	StepsExecuted   prometheus.Counter
	StepErrors      prometheus.Counter
}

// NewMetrics registers the analysis counters with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "datachat_sessions_started_total",
			Help: "Number of analysis sessions started.",
		}),
		SessionsFatal: factory.NewCounter(prometheus.CounterOpts{
			Name: "datachat_sessions_fatal_total",
			Help: "Number of sessions that failed before executing any step.",
		}),
		StepsExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "datachat_steps_executed_total",
			Help: "Number of plan steps executed.",
		}),
		StepErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "datachat_step_errors_total",
			Help: "Number of plan steps that ended in an error.",
		}),
	}
}
