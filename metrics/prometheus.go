package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements Metrics on top of the Prometheus Registerer
// passed to NewPrometheusMetrics, the way baseplate.go's httpbp wires
// promauto.NewCounter / NewGauge / NewHistogram into its request-path metrics.
//
// Every metric name in AllMetricNames is registered up front in
// NewPrometheusMetrics, so each
// counter/gauge/histogram reports zero instead of being absent from
// /metrics before its first use.
type PrometheusMetrics struct {
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
	timers     map[string]prometheus.Histogram
}

// NewPrometheusMetrics registers every contractual metric name against reg
// and returns a Metrics sink backed by them. Pass prometheus.DefaultRegisterer
// in production; tests should pass a fresh prometheus.NewRegistry() so
// repeated calls don't collide on metric names.
//
// namespace, if non-empty, is used as the Prometheus metric namespace for
// every registered metric.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) *PrometheusMetrics {
	factory := promauto.With(reg)
	pm := &PrometheusMetrics{
		counters:   make(map[string]prometheus.Counter, len(AllMetricNames.Counters)),
		gauges:     make(map[string]prometheus.Gauge, len(AllMetricNames.Gauges)),
		histograms: make(map[string]prometheus.Histogram, len(AllMetricNames.Histograms)),
		timers:     make(map[string]prometheus.Histogram, len(AllMetricNames.Timers)),
	}
	for _, name := range AllMetricNames.Counters {
		pm.counters[name] = factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      sanitize(name),
			Help:      "antenna counter: " + name,
		})
	}
	for _, name := range AllMetricNames.Gauges {
		pm.gauges[name] = factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      sanitize(name),
			Help:      "antenna gauge: " + name,
		})
	}
	for _, name := range AllMetricNames.Histograms {
		pm.histograms[name] = factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      sanitize(name),
			Help:      "antenna histogram: " + name,
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
		})
	}
	for _, name := range AllMetricNames.Timers {
		pm.timers[name] = factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      sanitize(name),
			Help:      "antenna timer (ms): " + name,
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		})
	}
	return pm
}

// sanitize turns a dotted/contractual metric name like "throttle.accept"
// into a Prometheus-safe identifier like "throttle_accept".
func sanitize(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// Incr implements Metrics.
func (pm *PrometheusMetrics) Incr(name string) {
	if c, ok := pm.counters[name]; ok {
		c.Inc()
	}
}

// Gauge implements Metrics.
func (pm *PrometheusMetrics) Gauge(name string, value float64) {
	if g, ok := pm.gauges[name]; ok {
		g.Set(value)
	}
}

// Histogram implements Metrics.
func (pm *PrometheusMetrics) Histogram(name string, value float64) {
	if h, ok := pm.histograms[name]; ok {
		h.Observe(value)
	}
}

// Timing implements Metrics, recording d in milliseconds.
func (pm *PrometheusMetrics) Timing(name string, d time.Duration) {
	if h, ok := pm.timers[name]; ok {
		h.Observe(float64(d) / float64(time.Millisecond))
	}
}

var _ Metrics = (*PrometheusMetrics)(nil)
