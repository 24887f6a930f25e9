package observability

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// amountBuckets span ₹10,000 to ₹16 crore.
var amountBuckets = prometheus.ExponentialBuckets(10_000, 4, 8)

// PrometheusFactory is a MetricFactory that registers client_golang
// collectors. Dotted names become underscored; counters get a _total
// suffix.
type PrometheusFactory struct {
	reg prometheus.Registerer
}

var _ MetricFactory = (*PrometheusFactory)(nil)

// NewPrometheusFactory registers every metric it creates with reg. It panics
// on duplicate registration, like prometheus.MustRegister.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	return &PrometheusFactory{reg: reg}
}

func (f *PrometheusFactory) Counter(name string) Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricName(name) + "_total",
		Help: "Count of " + strings.ReplaceAll(name, ".", " ") + ".",
	})
	f.reg.MustRegister(c)
	return c
}

func (f *PrometheusFactory) Histogram(name string) Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    metricName(name),
		Help:    "Distribution of " + strings.ReplaceAll(name, ".", " ") + ".",
		Buckets: amountBuckets,
	})
	f.reg.MustRegister(h)
	return h
}

func metricName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// HTTPMetrics instruments API requests by route pattern, method and status.
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers the request collectors.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_http_requests_total",
			Help: "Count of HTTP requests.",
		}, []string{"route", "method", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backoffice_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	reg.MustRegister(m.Requests, m.Duration)
	return m
}
