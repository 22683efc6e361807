package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector handles Prometheus metrics collection
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	paymentTransitions  *prometheus.CounterVec
	alertDeliveries     *prometheus.CounterVec
	jobRuns             *prometheus.CounterVec
}

// NewCollector creates the collector on its own registry so tests can build several.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		paymentTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_state_transitions_total",
				Help: "Total number of payment state transitions",
			},
			[]string{"from", "to"},
		),
		alertDeliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alert_deliveries_total",
				Help: "Total number of alert delivery attempts",
			},
			[]string{"channel", "result"},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduled_job_runs_total",
				Help: "Total number of scheduled job runs",
			},
			[]string{"job", "result"},
		),
	}

	c.registry.MustRegister(
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.paymentTransitions,
		c.alertDeliveries,
		c.jobRuns,
		collectors.NewGoCollector(),
	)
	return c
}

// RecordHTTPRequest records HTTP request metrics
func (c *Collector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTransition counts one payment state change.
func (c *Collector) RecordTransition(from, to string) {
	if c == nil {
		return
	}
	c.paymentTransitions.WithLabelValues(from, to).Inc()
}

// RecordDelivery counts one alert delivery attempt.
func (c *Collector) RecordDelivery(channel string, ok bool) {
	if c == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	c.alertDeliveries.WithLabelValues(channel, result).Inc()
}

func (c *Collector) RecordJobRun(job string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.jobRuns.WithLabelValues(job, result).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
