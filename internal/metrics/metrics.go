// Package metrics provides Prometheus metrics for the brokerage API.
//
// Collectors live on a registry owned by the Manager rather than on the
// global default registry, so every server (and every test) gets its own.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the collectors for HTTP traffic and store operations.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Store Metrics
	storeOperations        *prometheus.CounterVec
	storeOperationDuration *prometheus.HistogramVec

	// Business Metrics
	recordsCreated *prometheus.CounterVec
	recordsListed  *prometheus.HistogramVec
}

// NewManager creates a metrics manager with its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "trialbroker",
		subsystem:        "api",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"route", "method", "status_code"},
	)

	m.storeOperations = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_operations_total",
			Help:      "Total number of document store operations by collection, operation and outcome",
		},
		[]string{"collection", "operation", "outcome"},
	)

	m.storeOperationDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_operation_duration_seconds",
			Help:      "Document store operation latency in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"collection", "operation"},
	)

	m.recordsCreated = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "records_created_total",
			Help:      "Total number of records created per collection",
		},
		[]string{"collection"},
	)

	m.recordsListed = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "records_listed",
			Help:      "Number of records returned by list queries",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
		[]string{"collection"},
	)
}

// RecordHTTPRequest records a finished HTTP request.
func (m *Manager) RecordHTTPRequest(route, method, statusCode string, duration time.Duration) {
	if m == nil || !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(route, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, statusCode).Observe(duration.Seconds())
}

// RecordStoreOperation records one store call and whether it failed.
func (m *Manager) RecordStoreOperation(collection, operation string, duration time.Duration, err error) {
	if m == nil || !m.enabled {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.storeOperations.WithLabelValues(collection, operation, outcome).Inc()
	m.storeOperationDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())
}

// RecordCreated increments the created-records counter for collection.
func (m *Manager) RecordCreated(collection string) {
	if m == nil || !m.enabled {
		return
	}
	m.recordsCreated.WithLabelValues(collection).Inc()
}

// RecordListed observes the size of a list response.
func (m *Manager) RecordListed(collection string, count int) {
	if m == nil || !m.enabled {
		return
	}
	m.recordsListed.WithLabelValues(collection).Observe(float64(count))
}

// Registry returns the registry the collectors are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
