// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "keranjang"

// Metrics groups the service's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	AuthEvents      *prometheus.CounterVec
	CartOperations  *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AuthEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Registration and login attempts by outcome.",
		}, []string{"action", "outcome"}),
		CartOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Cart mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the broker by routing key and outcome.",
		}, []string{"routing_key", "outcome"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.AuthEvents,
		m.CartOperations,
		m.EventsPublished,
	)
	return m
}

// ObserveAuth counts one register/login attempt.
func (m *Metrics) ObserveAuth(action, outcome string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(action, outcome).Inc()
}

// ObserveCart counts one cart operation.
func (m *Metrics) ObserveCart(operation, outcome string) {
	if m == nil {
		return
	}
	m.CartOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveEvent counts one publish attempt.
func (m *Metrics) ObserveEvent(routingKey, outcome string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(routingKey, outcome).Inc()
}
