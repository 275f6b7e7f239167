// Package metrics exposes the service's prometheus instruments.
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

// Write operations recorded by RecordDrinkWrite.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// SubscriberCounter reports the number of open live streams.
type SubscriberCounter interface {
	Subscribers() int
}

// Metrics holds the application instruments. A nil *Metrics records nothing.
type Metrics struct {
	gatherer        prometheus.Gatherer
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	drinkWrites     *prometheus.CounterVec
}

// New registers the instruments with a fresh registry. subs may be nil when
// live streaming is disabled.
func New(subs SubscriberCounter) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newMetrics(registry, registry, subs)
}

func newMetrics(registerer prometheus.Registerer, gatherer prometheus.Gatherer, subs SubscriberCounter) *Metrics {
	m := &Metrics{
		gatherer: gatherer,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drinklog_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "drinklog_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		drinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "drinklog_drink_writes_total",
			Help: "Successful drink record writes by operation.",
		}, []string{"op"}),
	}
	registerer.MustRegister(m.requests, m.requestDuration, m.drinkWrites)

	if subs != nil {
		registerer.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "drinklog_live_subscribers",
			Help: "Open snapshot streams.",
		}, func() float64 {
			return float64(subs.Subscribers())
		}))
	}
	return m
}

// RecordDrinkWrite counts one successful write.
func (m *Metrics) RecordDrinkWrite(op string) {
	if m == nil {
		return
	}
	m.drinkWrites.WithLabelValues(op).Inc()
}

// GinMiddleware records request counts and latency per route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
