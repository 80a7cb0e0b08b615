// Package metrics provides Prometheus metrics collection for the engine and
// query-surface processes.
package metrics

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Error metrics
	ErrorsTotal *prometheus.CounterVec

	// Event fabric / engine metrics
	EventsIngestedTotal   *prometheus.CounterVec
	EventApplyDuration    *prometheus.HistogramVec
	EventsDedupedTotal    *prometheus.CounterVec
	EventsDeadLetterTotal *prometheus.CounterVec
	EngineHaltsTotal      *prometheus.CounterVec
	PartitionLagEvents    *prometheus.GaugeVec

	// Short-sell / locate workflow metrics
	ShortSellValidationDuration *prometheus.HistogramVec
	ShortSellOutcomesTotal      *prometheus.CounterVec
	LocateDecisionsTotal        *prometheus.CounterVec

	// Database metrics
	DatabaseQueriesTotal    *prometheus.CounterVec
	DatabaseQueryDuration   *prometheus.HistogramVec
	DatabaseConnectionsOpen prometheus.Gauge

	// Service health
	ServiceUptime prometheus.Gauge
	ServiceInfo   *prometheus.GaugeVec
}

// New creates a new Metrics instance with all collectors registered
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance with a custom registry
func NewWithRegistry(serviceName string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP metrics
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"service", "method", "path"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),

		// Error metrics
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "errors_total",
				Help: "Total number of errors",
			},
			[]string{"service", "type", "operation"},
		),

		// Event fabric / engine metrics
		EventsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fabric_events_ingested_total",
				Help: "Total number of events consumed off the fabric streams",
			},
			[]string{"stream", "partition"},
		),
		EventApplyDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "engine_event_apply_duration_seconds",
				Help:    "Time to apply a single event to a partition's in-memory state",
				Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
			},
			[]string{"component", "event_type"},
		),
		EventsDedupedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fabric_events_deduped_total",
				Help: "Total number of redelivered events dropped by the dedup store",
			},
			[]string{"stream"},
		),
		EventsDeadLetterTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fabric_events_dead_lettered_total",
				Help: "Total number of events diverted to the dead-letter stream",
			},
			[]string{"stream", "reason"},
		),
		EngineHaltsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "engine_partition_halts_total",
				Help: "Total number of partition halts caused by invariant violations",
			},
			[]string{"component", "invariant"},
		),
		PartitionLagEvents: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "engine_partition_lag_events",
				Help: "Number of unconsumed events behind the latest offset, per partition",
			},
			[]string{"stream", "partition"},
		),

		// Short-sell / locate workflow metrics
		ShortSellValidationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shortsell_validation_duration_seconds",
				Help:    "End-to-end short-sell validation latency",
				Buckets: []float64{.005, .01, .025, .05, .075, .1, .125, .15, .2, .3},
			},
			[]string{"market"},
		),
		ShortSellOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shortsell_outcomes_total",
				Help: "Total number of short-sell validation outcomes",
			},
			[]string{"market", "outcome"},
		),
		LocateDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "locate_decisions_total",
				Help: "Total number of locate workflow decisions",
			},
			[]string{"market", "outcome"},
		),

		// Database metrics
		DatabaseQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_queries_total",
				Help: "Total number of database queries",
			},
			[]string{"service", "operation", "status"},
		),
		DatabaseQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "database_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"service", "operation"},
		),
		DatabaseConnectionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "database_connections_open",
				Help: "Current number of open database connections",
			},
		),

		// Service health
		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "service_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "service_info",
				Help: "Service information",
			},
			[]string{"service", "version", "environment"},
		),
	}

	// Register all collectors
	if registerer != nil {
		registerer.MustRegister(
			m.RequestsTotal,
			m.RequestDuration,
			m.RequestsInFlight,
			m.ErrorsTotal,
			m.EventsIngestedTotal,
			m.EventApplyDuration,
			m.EventsDedupedTotal,
			m.EventsDeadLetterTotal,
			m.EngineHaltsTotal,
			m.PartitionLagEvents,
			m.ShortSellValidationDuration,
			m.ShortSellOutcomesTotal,
			m.LocateDecisionsTotal,
			m.DatabaseQueriesTotal,
			m.DatabaseQueryDuration,
			m.DatabaseConnectionsOpen,
			m.ServiceUptime,
			m.ServiceInfo,
		)
	}

	// Set service info
	m.ServiceInfo.WithLabelValues(serviceName, "1.0.0", environment()).Set(1)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(service, method, path, status).Inc()
	m.RequestDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// RecordError records an error
func (m *Metrics) RecordError(service, errorType, operation string) {
	m.ErrorsTotal.WithLabelValues(service, errorType, operation).Inc()
}

// RecordEventApplied records that a component applied an event to its
// in-memory state, along with how long that took.
func (m *Metrics) RecordEventApplied(stream, partition, component, eventType string, duration time.Duration) {
	m.EventsIngestedTotal.WithLabelValues(stream, partition).Inc()
	m.EventApplyDuration.WithLabelValues(component, eventType).Observe(duration.Seconds())
}

// RecordEventDeduped records a redelivered event dropped by the dedup store.
func (m *Metrics) RecordEventDeduped(stream string) {
	m.EventsDedupedTotal.WithLabelValues(stream).Inc()
}

// RecordEventDeadLettered records an event diverted to the dead-letter stream.
func (m *Metrics) RecordEventDeadLettered(stream, reason string) {
	m.EventsDeadLetterTotal.WithLabelValues(stream, reason).Inc()
}

// RecordEngineHalt records a partition halt caused by an invariant violation.
func (m *Metrics) RecordEngineHalt(component, invariant string) {
	m.EngineHaltsTotal.WithLabelValues(component, invariant).Inc()
}

// SetPartitionLag sets the number of unconsumed events behind the latest
// offset for a stream partition.
func (m *Metrics) SetPartitionLag(stream, partition string, lag int) {
	m.PartitionLagEvents.WithLabelValues(stream, partition).Set(float64(lag))
}

// RecordShortSellValidation records a short-sell validation outcome and its
// end-to-end latency.
func (m *Metrics) RecordShortSellValidation(market, outcome string, duration time.Duration) {
	m.ShortSellValidationDuration.WithLabelValues(market).Observe(duration.Seconds())
	m.ShortSellOutcomesTotal.WithLabelValues(market, outcome).Inc()
}

// RecordLocateDecision records a locate workflow outcome.
func (m *Metrics) RecordLocateDecision(market, outcome string) {
	m.LocateDecisionsTotal.WithLabelValues(market, outcome).Inc()
}

// RecordDatabaseQuery records a database query
func (m *Metrics) RecordDatabaseQuery(service, operation, status string, duration time.Duration) {
	m.DatabaseQueriesTotal.WithLabelValues(service, operation, status).Inc()
	m.DatabaseQueryDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// SetDatabaseConnections sets the number of open database connections
func (m *Metrics) SetDatabaseConnections(count int) {
	m.DatabaseConnectionsOpen.Set(float64(count))
}

// UpdateUptime updates the service uptime
func (m *Metrics) UpdateUptime(startTime time.Time) {
	m.ServiceUptime.Set(time.Since(startTime).Seconds())
}

// IncrementInFlight increments the in-flight requests counter
func (m *Metrics) IncrementInFlight() {
	m.RequestsInFlight.Inc()
}

// DecrementInFlight decrements the in-flight requests counter
func (m *Metrics) DecrementInFlight() {
	m.RequestsInFlight.Dec()
}

// Helper functions

// environment reads APP_ENV (defaulting to "development") without caching,
// so tests can flip it between calls.
func environment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	if env == "" {
		return "development"
	}
	return env
}

func isProduction() bool {
	return environment() == "production"
}

// Enabled returns whether Prometheus metrics should be exposed.
//
// Defaults:
// - production: disabled unless explicitly enabled via METRICS_ENABLED
// - non-production: enabled unless explicitly disabled via METRICS_ENABLED
func Enabled() bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED")))
	if raw == "" {
		return !isProduction()
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Global metrics instance
var (
	globalMetrics *Metrics
	globalMu      sync.Mutex
)

// Init initializes the global metrics instance
func Init(serviceName string) *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New(serviceName)
	}
	return globalMetrics
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New("unknown")
	}
	return globalMetrics
}
