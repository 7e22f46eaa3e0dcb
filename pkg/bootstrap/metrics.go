package bootstrap

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics of a Bootstrapper.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "shell").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for start and navigation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures Metrics.
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
		Namespace: "shell",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors of a Bootstrapper.
// A nil *Metrics records nothing.
type Metrics struct {
	startsTotal        *prometheus.CounterVec
	startDuration      prometheus.Histogram
	navigationsTotal   *prometheus.CounterVec
	navigationDuration prometheus.Histogram
	pendingNavigations prometheus.Gauge
}

// NewMetrics creates and registers the bootstrap collectors.
//
// Metrics collected:
//   - shell_starts_total: Start calls by result (ok, error, cached)
//   - shell_start_duration_seconds: duration of the init/activate/imports run
//   - shell_navigations_total: navigations by result (ok, error, precondition)
//   - shell_navigation_duration_seconds: time from element creation to readiness
//   - shell_pending_navigations: navigations waiting for the server
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		startsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "starts_total",
			Help:        "Total number of Start calls by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		startDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "start_duration_seconds",
			Help:        "Duration of session initialization and runtime activation",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		navigationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Time from element creation until the server reports the view ready",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		pendingNavigations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pending_navigations",
			Help:        "Number of navigations waiting for the server",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) recordStart(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.startsTotal.WithLabelValues(result).Inc()
	if d > 0 {
		m.startDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) navigationStarted() {
	if m == nil {
		return
	}
	m.pendingNavigations.Inc()
}

func (m *Metrics) navigationDone(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.pendingNavigations.Dec()
	m.navigationsTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		m.navigationDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) navigationRejected(result string) {
	if m == nil {
		return
	}
	m.navigationsTotal.WithLabelValues(result).Inc()
}
