package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qna_http_requests_total",
			Help: "HTTP requests by route, content kind, caller type and status",
		},
		[]string{"method", "route", "kind", "caller", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qna_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route", "kind"},
	)

	inFlightRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qna_http_in_flight_requests",
			Help: "Requests currently being served",
		},
	)
)

// Metrics records request counts and latency per route template
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		inFlightRequests.Inc()
		defer inFlightRequests.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		kind := routeKind(route)

		httpRequestsTotal.WithLabelValues(
			c.Request.Method, route, kind, callerType(c), strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route, kind).Observe(time.Since(start).Seconds())
	}
}

// routeKind maps /api/v1/questions/... and /api/v1/answers/... to a content kind
func routeKind(route string) string {
	switch {
	case strings.HasPrefix(route, "/api/v1/questions"):
		return "question"
	case strings.HasPrefix(route, "/api/v1/answers"):
		return "answer"
	default:
		return "none"
	}
}

// callerType is read after the handler chain so route-level auth has run
func callerType(c *gin.Context) string {
	actor, ok := GetActor(c)
	switch {
	case !ok || actor.ID == "":
		return "anonymous"
	case actor.IsModerator:
		return "moderator"
	default:
		return "member"
	}
}
