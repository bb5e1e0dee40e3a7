// Package metrics instruments the metrics client itself.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use as a nil pointer, every method is then a no-op.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dash_requests_total",
			Help: "Requests sent to the metrics backend by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dash_request_duration_seconds",
			Help:    "Round trip time of requests to the metrics backend.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"endpoint"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dash_cache_requests_total",
			Help: "Cache lookups by result (hit, miss, shared).",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.cache)
	}
	return m
}

// Request records a finished request. A code of 0 means the transport failed
// before a response was received.
func (m *Metrics) Request(endpoint string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	c := "error"
	if code != 0 {
		c = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(endpoint, c).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cache.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cache.WithLabelValues("miss").Inc()
}

// CacheShared records a caller that joined a call already in flight.
func (m *Metrics) CacheShared() {
	if m == nil {
		return
	}
	m.cache.WithLabelValues("shared").Inc()
}
