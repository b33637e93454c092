package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	poolConstructionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upscaled",
			Subsystem: "pool",
			Name:      "constructions_total",
			Help:      "Total number of model instance constructions",
		},
		[]string{"model"},
	)

	poolInstances = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "upscaled",
		Subsystem: "pool",
		Name:      "instances",
		Help:      "Model instances currently pooled",
	})

	computeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "upscaled",
			Subsystem: "compute",
			Name:      "duration_seconds",
			Help:      "Duration of decode, upscale and encode per computation",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model", "scale"},
	)

	computeInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "upscaled",
		Subsystem: "compute",
		Name:      "inflight",
		Help:      "Computations currently holding a worker slot",
	})

	backpressureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upscaled",
			Name:      "backpressure_total",
			Help:      "Admission waits that timed out, by stage",
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(poolConstructionsTotal, poolInstances, computeDuration, computeInflight, backpressureTotal)
}
