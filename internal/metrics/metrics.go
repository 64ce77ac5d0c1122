// Package metrics exposes prometheus collectors for HTTP traffic and store
// operations.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moodica/internal/db"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 持有一组独立注册表中的指标，便于测试时互不干扰。
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	storeOps     *prometheus.CounterVec
}

// New 创建并注册全部指标。
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "moodica",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "moodica",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method", "path"},
		),
		storeOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "moodica",
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Total number of document store operations by outcome.",
			},
			[]string{"collection", "operation", "result"},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.storeOps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware 记录请求数与耗时；path 使用路由模板，避免高基数。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler 暴露 /metrics。
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ObserveStoreOperation implements db.Observer.
func (m *Metrics) ObserveStoreOperation(collection, operation string, err error) {
	m.storeOps.WithLabelValues(collection, operation, storeResult(err)).Inc()
}

func storeResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, db.ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, db.ErrStoreWrite):
		return "write_error"
	case errors.Is(err, db.ErrStoreQuery):
		return "query_error"
	default:
		return "error"
	}
}

var _ db.Observer = (*Metrics)(nil)
