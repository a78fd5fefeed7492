// Package metrics exposes the transport client's traffic observations as
// Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements transport.Metrics on Prometheus collectors. It is
// safe for concurrent use.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec
	rateLimitedTotal *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry, reachable via
// Registry for serving.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := newCollector(reg)
	c.registry = reg
	return c
}

// NewCollectorWith creates a collector on a supplied registerer.
func NewCollectorWith(reg prometheus.Registerer) *Collector {
	return newCollector(reg)
}

func newCollector(reg prometheus.Registerer) *Collector {
	return &Collector{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "betterbahn_requests_total",
				Help: "Total number of upstream requests made",
			},
			[]string{"endpoint", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "betterbahn_request_duration_seconds",
				Help:    "Duration of upstream requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		cacheHitsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "betterbahn_cache_hits_total",
				Help: "Total number of responses served from cache",
			},
			[]string{"endpoint", "stale"},
		),
		cacheMissesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "betterbahn_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"endpoint"},
		),
		rateLimitedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "betterbahn_rate_limited_total",
				Help: "Total number of requests rejected by the local rate limiter",
			},
			[]string{"endpoint"},
		),
		errorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "betterbahn_errors_total",
				Help: "Total number of failed upstream requests",
			},
			[]string{"endpoint", "kind"},
		),
	}
}

// Registry returns the collector's own registry, or nil when the collector
// was attached to an external registerer.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordRequest records one upstream request with its status and duration.
func (c *Collector) RecordRequest(endpoint string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCacheHit counts a response served from cache.
func (c *Collector) RecordCacheHit(endpoint string, stale bool) {
	if c == nil {
		return
	}
	c.cacheHitsTotal.WithLabelValues(endpoint, strconv.FormatBool(stale)).Inc()
}

// RecordCacheMiss counts a lookup that had to go upstream.
func (c *Collector) RecordCacheMiss(endpoint string) {
	if c == nil {
		return
	}
	c.cacheMissesTotal.WithLabelValues(endpoint).Inc()
}

// RecordRateLimited counts a request rejected by the local limiter.
func (c *Collector) RecordRateLimited(endpoint string) {
	if c == nil {
		return
	}
	c.rateLimitedTotal.WithLabelValues(endpoint).Inc()
}

// RecordError counts a failed request by error kind.
func (c *Collector) RecordError(endpoint, kind string) {
	if c == nil {
		return
	}
	c.errorsTotal.WithLabelValues(endpoint, kind).Inc()
}
