// Package metrics collects Prometheus metrics for authentication operations
// and identity provider calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records auth metrics into a Prometheus registry.
type Collector struct {
	authOps         *prometheus.CounterVec
	authOpDuration  *prometheus.HistogramVec
	providerReqs    *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corebalance_auth_operations_total",
			Help: "Session controller operations by outcome.",
		}, []string{"operation", "outcome"}),
		authOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corebalance_auth_operation_duration_seconds",
			Help:    "Session controller operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		providerReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "corebalance_provider_requests_total",
			Help: "Identity provider requests by endpoint and HTTP status (0 for transport failures).",
		}, []string{"endpoint", "status_code"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "corebalance_provider_request_duration_seconds",
			Help:    "Identity provider request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	reg.MustRegister(c.authOps, c.authOpDuration, c.providerReqs, c.providerLatency)
	return c
}

// ObserveAuthOperation records one controller operation.
func (c *Collector) ObserveAuthOperation(op, outcome string, d time.Duration) {
	c.authOps.WithLabelValues(op, outcome).Inc()
	c.authOpDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveProviderRequest records one HTTP call to the identity provider.
func (c *Collector) ObserveProviderRequest(endpoint string, status int, d time.Duration) {
	c.providerReqs.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	c.providerLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// Handler returns an HTTP handler exposing the metrics in gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
