package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the host
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Boot metrics
	BootCompleted prometheus.Gauge
	BootTotal     prometheus.Gauge
	BootOutcomes  *prometheus.CounterVec
	BootDuration  prometheus.Histogram

	// Routing metrics
	RouteResolutions *prometheus.CounterVec
	InterceptionArms *prometheus.CounterVec

	// Circuit metrics
	CircuitsActive prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	registry *prometheus.Registry

	// Snapshot for the JSON health view
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for JSON output
type Snapshot struct {
	TotalRequests     int64 `json:"total_requests"`
	TotalErrors       int64 `json:"total_errors"`
	RoutesResolved    int64 `json:"routes_resolved"`
	RoutesUnmatched   int64 `json:"routes_unmatched"`
	ActiveConnections int64 `json:"active_connections"`
}

// NewMetrics creates a metrics collector on its own registry so several
// collectors can coexist (tests, embedded hosts).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uihost_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uihost_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		BootCompleted: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "uihost_boot_resources_completed",
				Help: "Boot resources completed in the current boot",
			},
		),
		BootTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "uihost_boot_resources_total",
				Help: "Boot resources declared by the current boot",
			},
		),
		BootOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uihost_boot_outcomes_total",
				Help: "Boot attempts by outcome",
			},
			[]string{"outcome"},
		),
		BootDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "uihost_boot_duration_seconds",
				Help:    "Time from boot start to terminal state",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		RouteResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uihost_route_resolutions_total",
				Help: "Route resolutions by outcome",
			},
			[]string{"outcome"},
		),
		InterceptionArms: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uihost_navigation_interception_arms_total",
				Help: "Navigation interception arm calls by variant",
			},
			[]string{"variant"},
		),

		CircuitsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "uihost_circuits_active",
				Help: "Number of live remote circuits",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "uihost_ws_connections_active",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uihost_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}
}

// Registry returns the registry backing these metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordBootProgress mirrors the boot progress counters
func (m *Metrics) RecordBootProgress(completed, total int) {
	if m == nil {
		return
	}
	m.BootCompleted.Set(float64(completed))
	m.BootTotal.Set(float64(total))
}

// RecordBootOutcome records a terminal boot state
func (m *Metrics) RecordBootOutcome(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BootOutcomes.WithLabelValues(outcome).Inc()
	m.BootDuration.Observe(duration.Seconds())
}

// RecordRoute records a route resolution outcome
func (m *Metrics) RecordRoute(outcome string) {
	if m == nil {
		return
	}
	m.RouteResolutions.WithLabelValues(outcome).Inc()

	m.mu.Lock()
	switch outcome {
	case "matched":
		m.snapshot.RoutesResolved++
	case "no_match":
		m.snapshot.RoutesUnmatched++
	}
	m.mu.Unlock()
}

// RecordInterceptionArm records an interception arm call
func (m *Metrics) RecordInterceptionArm(variant string) {
	if m == nil {
		return
	}
	m.InterceptionArms.WithLabelValues(variant).Inc()
}

// SetCircuitsActive sets the number of live circuits
func (m *Metrics) SetCircuitsActive(count int) {
	if m == nil {
		return
	}
	m.CircuitsActive.Set(float64(count))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// GetSnapshot returns a copy of the current snapshot
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
