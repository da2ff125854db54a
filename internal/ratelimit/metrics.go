package ratelimit

import "github.com/prometheus/client_golang/prometheus"

var throttledTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "ratelimit_throttled_total",
		Help: "Requests rejected by the sliding window limiter",
	},
)

func init() {
	prometheus.MustRegister(throttledTotal)
}
