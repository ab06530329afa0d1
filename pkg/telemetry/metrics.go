// Package telemetry turns router lifecycle events into Prometheus metrics
// and OpenTelemetry spans. Both collectors are event subscribers:
//
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	defer m.Attach(r)()
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/nav/pkg/router"
)

// Navigation outcomes used as the "outcome" label.
const (
	OutcomeSuccess  = "success"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "nav").
	Namespace string

	// Subsystem is the metrics subsystem (default: "router").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for navigation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collector.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "nav",
		Subsystem: "router",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics collects navigation metrics from router events.
//
// Metrics collected:
//   - nav_router_navigations_total: navigations by outcome
//   - nav_router_navigation_duration_seconds: NavigationStart to settlement
//   - nav_router_navigations_in_flight: started but not settled navigations
//   - nav_router_guard_rejections_total: guard checks that returned false
//   - nav_router_config_loads_total: lazily loaded route tables
//   - nav_router_activations_total: route activations by outlet
type Metrics struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration prometheus.Histogram
	inFlight           prometheus.Gauge
	guardRejections    prometheus.Counter
	configLoads        prometheus.Counter
	activations        *prometheus.CounterVec

	mu     sync.Mutex
	starts map[int64]time.Time
	now    func() time.Time
}

// NewMetrics registers the collector's metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Buckets == nil {
		config.Buckets = prometheus.DefBuckets
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		navigationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Navigation duration from start to settlement in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_in_flight",
			Help:        "Number of started navigations that have not settled",
			ConstLabels: config.ConstLabels,
		}),

		guardRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "guard_rejections_total",
			Help:        "Total number of guard checks that rejected a navigation",
			ConstLabels: config.ConstLabels,
		}),

		configLoads: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "config_loads_total",
			Help:        "Total number of lazily loaded route tables",
			ConstLabels: config.ConstLabels,
		}),

		activations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "activations_total",
			Help:        "Total number of route activations by outlet",
			ConstLabels: config.ConstLabels,
		}, []string{"outlet"}),

		starts: make(map[int64]time.Time),
		now:    time.Now,
	}
}

// Attach subscribes m to r and returns the unsubscribe function.
func (m *Metrics) Attach(r *router.Router) func() {
	return r.Subscribe(m.Observe)
}

// Observe records one event.
func (m *Metrics) Observe(e router.Event) {
	switch ev := e.(type) {
	case router.NavigationStart:
		m.mu.Lock()
		m.starts[ev.ID] = m.now()
		m.mu.Unlock()
		m.inFlight.Inc()
	case router.NavigationEnd:
		m.settle(ev.ID, OutcomeSuccess)
	case router.NavigationCancel:
		m.settle(ev.ID, OutcomeCanceled)
	case router.NavigationError:
		m.settle(ev.ID, OutcomeError)
	case router.GuardsCheckEnd:
		if !ev.ShouldActivate {
			m.guardRejections.Inc()
		}
	case router.RouteConfigLoadEnd:
		m.configLoads.Inc()
	case router.ActivationEnd:
		outlet := "primary"
		if ev.Snapshot != nil {
			outlet = ev.Snapshot.Outlet
		}
		m.activations.WithLabelValues(outlet).Inc()
	}
}

func (m *Metrics) settle(id int64, outcome string) {
	m.navigationsTotal.WithLabelValues(outcome).Inc()

	m.mu.Lock()
	start, ok := m.starts[id]
	delete(m.starts, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	m.inFlight.Dec()
	m.navigationDuration.Observe(m.now().Sub(start).Seconds())
}
