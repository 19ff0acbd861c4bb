// Package metrics exposes Prometheus instrumentation for the coverage service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	submissionsTotal  *prometheus.CounterVec
	activeNodes       prometheus.Gauge
	estimatedAPs      prometheus.Gauge
	deadzoneRatio     prometheus.Gauge
	storageErrors     *prometheus.CounterVec
	publishErrors     prometheus.Counter
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coverage_submissions_total",
			Help: "Node submissions by outcome.",
		}, []string{"result"}),
		activeNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coverage_active_nodes",
			Help: "Nodes inside the liveness window at the last query.",
		}),
		estimatedAPs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coverage_estimated_access_points",
			Help: "Access points located at the last query.",
		}),
		deadzoneRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coverage_deadzone_ratio",
			Help: "Share of grid cells flagged as deadzones at the last coverage query.",
		}),
		storageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coverage_storage_errors_total",
			Help: "Persistence failures by operation.",
		}, []string{"op"}),
		publishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coverage_publish_errors_total",
			Help: "Submission events that could not be published.",
		}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.submissionsTotal,
		m.activeNodes,
		m.estimatedAPs,
		m.deadzoneRatio,
		m.storageErrors,
		m.publishErrors,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// SubmissionAccepted counts an accepted submission
func (m *Metrics) SubmissionAccepted() { m.submissionsTotal.WithLabelValues("accepted").Inc() }

// SubmissionRejected counts a rejected submission
func (m *Metrics) SubmissionRejected() { m.submissionsTotal.WithLabelValues("rejected").Inc() }

// ObserveQuery records the shape of the latest query result
func (m *Metrics) ObserveQuery(activeNodes, estimates int) {
	m.activeNodes.Set(float64(activeNodes))
	m.estimatedAPs.Set(float64(estimates))
}

// ObserveDeadzones records the deadzone share of the latest coverage map
func (m *Metrics) ObserveDeadzones(ratio float64) { m.deadzoneRatio.Set(ratio) }

// StorageError counts a failed persistence operation
func (m *Metrics) StorageError(op string) { m.storageErrors.WithLabelValues(op).Inc() }

// PublishError counts a failed event publication
func (m *Metrics) PublishError() { m.publishErrors.Inc() }
