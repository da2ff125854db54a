package scheduler

import "github.com/prometheus/client_golang/prometheus"

const (
	pathMemoized  = "memoized"
	pathDebounced = "debounced"

	outcomeDelivered  = "delivered"
	outcomeSuperseded = "superseded"
	outcomeError      = "error"
)

var (
	updatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recompute_scheduler_updates_total",
		Help: "Configuration updates received grouped by handling path",
	}, []string{"path"})

	resultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recompute_scheduler_results_total",
		Help: "Finished computations grouped by outcome",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(updatesTotal, resultsTotal)
}
