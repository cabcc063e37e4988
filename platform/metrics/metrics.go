// Package metrics exposes Prometheus collectors for HTTP traffic and
// pipeline activity.
// This is part of the platform layer and contains no business logic.
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
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	stageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_stage_transitions_total",
			Help: "Lead status changes by origin and destination stage",
		},
		[]string{"from", "to"},
	)

	blockedTransitions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crm_stage_transitions_blocked_total",
			Help: "Backward moves rejected by the forward-only rule",
		},
	)

	affiliateEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "affiliate_tracking_events_total",
			Help: "Affiliate tracking events recorded by type",
		},
		[]string{"type"},
	)

	outboundPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

// Middleware records request counts and latency. The matched route
// template is used as path label to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordStageTransition(from, to string) {
	stageTransitions.WithLabelValues(from, to).Inc()
}

func RecordBlockedTransition() {
	blockedTransitions.Inc()
}

func RecordAffiliateEvent(eventType string) {
	affiliateEvents.WithLabelValues(eventType).Inc()
}

func RecordIntegrationError(service string) {
	outboundPublishErrors.WithLabelValues(service).Inc()
}
