package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	hitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Cache hits per namespace",
		},
		[]string{"namespace"},
	)
	missesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Cache misses per namespace, including lazy expiries",
		},
		[]string{"namespace"},
	)
	evictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Entries evicted by capacity pressure per namespace",
		},
		[]string{"namespace"},
	)
	expirationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_expirations_total",
			Help: "Entries removed lazily after their TTL elapsed",
		},
		[]string{"namespace"},
	)
	invalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Entries removed by explicit invalidation per namespace",
		},
		[]string{"namespace"},
	)
)

func init() {
	prometheus.MustRegister(hitsTotal, missesTotal, evictionsTotal, expirationsTotal, invalidationsTotal)
}
