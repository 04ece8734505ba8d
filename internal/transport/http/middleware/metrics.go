package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpReqTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shop",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shop",
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Requests currently being served.",
	})
)

func init() { prometheus.MustRegister(httpReqTotal, httpLatency, httpInFlight) }

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		c.Next()
		// 未命中路由时统一归为 unmatched，避免标签基数爆炸
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpReqTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler 暴露默认 registry
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) { h.ServeHTTP(c.Writer, c.Request) }
}
