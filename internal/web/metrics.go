package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// registry holds the collectors served on /metrics
	registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "blog_api",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blog_api",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blog_api",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		},
		[]string{"method", "route"},
	)
)

func init() {
	registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

func metricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// instrument records request metrics labelled by the matched route pattern,
// so ids and slugs do not blow up the label cardinality.
func instrument(ctx *gin.Context) {
	if ctx.Request.URL.Path == "/metrics" {
		ctx.Next()
		return
	}

	start := time.Now()
	httpInFlight.Inc()
	defer httpInFlight.Dec()

	ctx.Next()

	route := ctx.FullPath()
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
	httpDuration.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(start).Seconds())
}
