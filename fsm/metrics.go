package fsm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric outcome constants.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Metric definitions with appropriate labels.
var (
	// fireTotal counts Fire calls by machine, event and outcome.
	fireTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_fire_total",
		Help: "Total number of fired events by machine, event, and outcome",
	}, []string{"machine", "event", "outcome"})

	// transitionsTotal counts committed state changes.
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fsm_transitions_total",
		Help: "Total number of committed state transitions by machine, from_state, and to_state",
	}, []string{"machine", "from_state", "to_state"})

	// callbackDuration tracks time spent in user callbacks per phase.
	callbackDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fsm_callback_duration_seconds",
		Help:    "Duration of callback execution by machine and phase",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"machine", "phase"})

	// asyncPending is 1 while a machine holds a parked asynchronous transition.
	asyncPending = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fsm_async_pending",
		Help: "Whether an asynchronous transition is pending, by machine",
	}, []string{"machine"})
)

func sanitizeMachine(name string) string {
	if name == "" {
		return "unnamed"
	}

	return name
}

func sanitizeEvent(name string) string {
	if name == "" {
		return "none"
	}

	return name
}
