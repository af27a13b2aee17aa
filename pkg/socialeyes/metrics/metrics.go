// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attendance transitions counted by AttendanceTransitions
const (
	TransitionRequested          = "requested"
	TransitionChangedToWaitlist  = "changed_to_waitlist"
	TransitionChangedToAttending = "changed_to_attending"
	TransitionRemoved            = "removed"
)

var (
	// Registry is the registry served on /metrics
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "socialeyes",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "socialeyes",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	AttendanceTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "socialeyes",
		Name:      "attendance_transitions_total",
		Help:      "Attendance state transitions applied.",
	}, []string{"transition"})
)

func init() {
	Registry.MustRegister(
		HTTPRequests,
		HTTPDuration,
		AttendanceTransitions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Middleware records request counts and latency. Unmatched routes are
// grouped under one label to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// RecordTransition counts one applied attendance transition
func RecordTransition(transition string) {
	AttendanceTransitions.WithLabelValues(transition).Inc()
}
