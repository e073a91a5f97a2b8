// File: internal/platform/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns every application metric. A nil *Collector is valid and
// records nothing, which keeps tests free of registry plumbing.
type Collector struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	authAttempts   *prometheus.CounterVec
	lookupRequests *prometheus.CounterVec
	sessionsPurged prometheus.Counter
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewCollector creates the application metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barbershop_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "barbershop_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barbershop_auth_attempts_total",
			Help: "Sign-in attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		lookupRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "barbershop_lookup_requests_total",
			Help: "Outbound postal and geographic lookups by source and outcome.",
		}, []string{"source", "outcome"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "barbershop_sessions_purged_total",
			Help: "Stale sessions deleted by the cleanup job.",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.authAttempts,
		c.lookupRequests,
		c.sessionsPurged,
	)
	return c
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordAuth records a sign-in attempt. outcome is "success" or "failure".
func (c *Collector) RecordAuth(provider, outcome string) {
	if c == nil {
		return
	}
	c.authAttempts.WithLabelValues(provider, outcome).Inc()
}

// RecordLookup records an outbound lookup. outcome is "hit", "miss", "not_found" or "error".
func (c *Collector) RecordLookup(source, outcome string) {
	if c == nil {
		return
	}
	c.lookupRequests.WithLabelValues(source, outcome).Inc()
}

// RecordSessionsPurged adds n to the purged session counter.
func (c *Collector) RecordSessionsPurged(n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.sessionsPurged.Add(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
