package automod

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var evaluationCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "drum_automod_evaluations_total",
	Help: "Number of slot evaluations, by evaluator and outcome (pass, fail, unavailable)",
}, []string{"evaluator", "outcome"})

var evaluationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "drum_automod_evaluation_duration_sec",
	Help: "Duration of a single evaluator call",
}, []string{"evaluator"})

var reportFailCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "drum_automod_failed_reports_total",
	Help: "Number of submissions with at least one failing slot",
})

var remoteRequestCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "drum_automod_remote_requests_total",
	Help: "Number of remote scoring requests, by HTTP status code",
}, []string{"status"})
