package pricing

import "github.com/prometheus/client_golang/prometheus"

var (
	calculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_calculations_total",
			Help: "Price calculations grouped by outcome",
		},
		[]string{"result"},
	)
	calculationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "price_calculation_duration_ms",
			Help:    "Latency of uncached price calculations in milliseconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)
	invalidationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "price_cache_invalidations_total",
			Help: "Coarse price cache invalidations triggered by catalog changes",
		},
	)
)

const (
	resultComputed = "computed"
	resultCacheHit = "cache_hit"
	resultError    = "error"
)

func init() {
	prometheus.MustRegister(calculationsTotal, calculationDuration, invalidationsTotal)
}
