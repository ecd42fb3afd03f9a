package karma

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "drum_karma_events_applied_total",
	Help: "Number of vote events applied to karma",
}, []string{"kind"})

var eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "drum_karma_events_dropped_total",
	Help: "Number of vote events dropped by the karma ledger",
}, []string{"reason"})
