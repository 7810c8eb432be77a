package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// unmatchedRoute labels requests chi could not route, so arbitrary paths do
// not become label values.
const unmatchedRoute = "unmatched"

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gogo",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by route pattern, method and status code.",
		},
		[]string{"route", "method", "code"},
	)

	httpRequestSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gogo",
			Subsystem: "http",
			Name:      "request_seconds",
			Help:      "API request latency by route pattern and method.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"route", "method"},
	)

	httpResponseBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gogo",
			Subsystem: "http",
			Name:      "response_bytes",
			Help:      "API response body size by route pattern.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 7),
		},
		[]string{"route"},
	)

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gogo",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "API requests currently being served.",
	})
)

// PrometheusMetrics records request counts, latency and response size per
// chi route pattern. Health probes and metric scrapes are not counted.
func PrometheusMetrics() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			route := routePattern(r)
			if route == "" {
				route = unmatchedRoute
			}
			httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
			httpRequestSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
			httpResponseBytes.WithLabelValues(route).Observe(float64(sw.bytes))
		})
	}
}
