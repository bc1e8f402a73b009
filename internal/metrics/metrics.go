// Package metrics defines the service's Prometheus collectors and the
// HTTP instrumentation middleware.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LinksCreated counts successful allocations, partitioned by how
	// the code was chosen.
	LinksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_links_created_total",
			Help: "Total number of shortened links created",
		},
		[]string{"source"}, // generated | alias
	)

	// Redirects counts resolution attempts by outcome.
	Redirects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_redirects_total",
			Help: "Total number of redirect resolutions by outcome",
		},
		[]string{"outcome"}, // success | not_found | expired | inactive | error
	)

	// ClicksRecorded counts click events persisted by the workers.
	ClicksRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortener_clicks_recorded_total",
			Help: "Total number of click events persisted",
		},
	)

	// ClicksDropped counts click events dropped because the ingest
	// buffer was full. Dropping is the documented overload behavior.
	ClicksDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortener_clicks_dropped_total",
			Help: "Total number of click events dropped at enqueue",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Middleware records request counts and latencies. The route label uses
// the matched route template to keep cardinality low; unmatched paths
// fall under "unmatched".
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := prometheus.Labels{
			"method": c.Request.Method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus registry, mounted at /metrics.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
