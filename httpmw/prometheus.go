package httpmw

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	labelMethod = "method"
	labelCode   = "code"
	labelPath   = "path"
)

// PrometheusMetrics returns a Middleware that tracks a request counter and a
// latency histogram per endpoint, grounded on the labels baseplate.go's
// PrometheusServerMetrics attaches to http_server_requests_total and
// http_server_latency_seconds.
func PrometheusMetrics(reg prometheus.Registerer, name string) Middleware {
	factory := promauto.With(reg)
	requests := factory.NewCounterVec(prometheus.CounterOpts{
		Name: "http_server_requests_total",
		Help: "Total HTTP requests handled, by endpoint, method and status code.",
	}, []string{labelPath, labelMethod, labelCode})
	latency := factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_server_latency_seconds",
		Help:    "HTTP request latency in seconds, by endpoint and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{labelPath, labelMethod})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusCodeRecorder{ResponseWriter: w}
			next.ServeHTTP(wrapped, r)

			labels := prometheus.Labels{
				labelPath:   r.URL.Path,
				labelMethod: r.Method,
			}
			latency.With(labels).Observe(time.Since(start).Seconds())

			labels[labelCode] = strconv.Itoa(wrapped.status())
			requests.With(labels).Inc()
		})
	}
}
