package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts engine activity.
type Metrics struct {
	Operations    *prometheus.CounterVec
	Murders       *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

// NewMetrics creates the engine counters and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "murder",
			Name:      "operations_total",
			Help:      "Game operations by name and outcome. Outcome is ok or the game error code.",
		}, []string{"op", "outcome"}),
		Murders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "murder",
			Name:      "completions_total",
			Help:      "Completed assignments by kind (murder or kick).",
		}, []string{"kind"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "murder",
			Name:      "notifications_total",
			Help:      "Mission updates handed to the notifier by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.Murders, m.Notifications)
	}
	return m
}
