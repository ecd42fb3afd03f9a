package admission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "drum_admission_decisions_total",
	Help: "Number of admission decisions, by kind and outcome (accepted or rejection reason)",
}, []string{"kind", "outcome"})

var notifyErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "drum_admission_notify_errors_total",
	Help: "Number of moderation notifications that failed to send",
})
