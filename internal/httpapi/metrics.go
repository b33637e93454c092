package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "upscaled"
	metricsSubsystem = "http"
)

// Route labels are chi patterns, so query strings and swagger asset paths
// never widen the label set.
var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	requestSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "request_duration_seconds",
		Help:      "Time to serve an HTTP request, including upscaling on a cache miss.",
		Buckets:   []float64{.005, .025, .1, .25, 1, 2.5, 5, 10, 30, 60},
	}, []string{"route", "method"})

	inflightRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "inflight_requests",
		Help:      "HTTP requests currently being served.",
	})

	tooBusyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "backpressure_total",
		Help:      "Scale requests answered 429, by stage.",
	}, []string{"reason"})

	scaleResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "scale_results_total",
		Help:      "Scale responses by outcome; \"ok\" or the error reason sent to the client.",
	}, []string{"reason"})

	scaleBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "scale_response_bytes_total",
		Help:      "Image bytes written by /scale, split by cache hit or miss.",
	}, []string{"cache"})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestSeconds, inflightRequests, tooBusyTotal, scaleResultsTotal, scaleBytesTotal)
}

// recordScaleOutcome counts one finished /scale response.
func recordScaleOutcome(status int, reason string) {
	if status == http.StatusTooManyRequests {
		tooBusyTotal.WithLabelValues("compute").Inc()
	}
	scaleResultsTotal.WithLabelValues(reason).Inc()
}

// codeWriter remembers the status code written by the handler.
type codeWriter struct {
	http.ResponseWriter
	code int
}

func (cw *codeWriter) WriteHeader(code int) {
	cw.code = code
	cw.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware records request counts and latency. It must sit inside
// the chi router: the route pattern is read after the handler ran.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inflightRequests.Inc()
		defer inflightRequests.Dec()

		cw := &codeWriter{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(cw, r)

		route := routeLabel(r)
		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(cw.code)).Inc()
		requestSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// routeLabel is the matched chi pattern; unmatched requests share one label.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
