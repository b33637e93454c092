package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "upscaled",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total number of result cache hits",
	})
	cacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "upscaled",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total number of result cache misses",
	})
	cacheStoresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "upscaled",
		Subsystem: "cache",
		Name:      "stores_total",
		Help:      "Total number of results written to the cache",
	})
	cacheStoreFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "upscaled",
		Subsystem: "cache",
		Name:      "store_failures_total",
		Help:      "Total number of failed cache writes",
	})
	cacheEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "upscaled",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Total number of entries evicted by the size bound",
	})
)

func init() {
	prometheus.MustRegister(cacheHitsTotal, cacheMissesTotal, cacheStoresTotal, cacheStoreFailuresTotal, cacheEvictionsTotal)
}
