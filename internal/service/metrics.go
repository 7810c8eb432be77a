package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var coordinatorRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gogo_review_coordinator_runs_total",
		Help: "Review create/delete runs by operation and the final state reached.",
	},
	[]string{"operation", "state", "outcome"},
)
