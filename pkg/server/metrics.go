package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of a Server.
// A nil *Metrics records nothing.
type Metrics struct {
	appsCreated     *prometheus.CounterVec
	pushConnections prometheus.Gauge
	bindsTotal      *prometheus.CounterVec
	bindDuration    prometheus.Histogram
}

// NewMetrics creates the server collectors and registers them with reg.
//
// Metrics collected:
//   - {namespace}_server_apps_created_total: init requests by result (ok, limit)
//   - {namespace}_server_push_connections: open push connections
//   - {namespace}_server_binds_total: Connect requests by result (ok, not_found, invalid, error)
//   - {namespace}_server_bind_duration_seconds: time spent in ViewBinder.Bind
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "shell"
	}
	factory := promauto.With(reg)

	return &Metrics{
		appsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "apps_created_total",
			Help:      "Total number of init requests by result",
		}, []string{"result"}),

		pushConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "push_connections",
			Help:      "Number of open push connections",
		}),

		bindsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "binds_total",
			Help:      "Total number of Connect requests by result",
		}, []string{"result"}),

		bindDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "bind_duration_seconds",
			Help:      "Time spent binding a view to an element",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) appCreated(result string) {
	if m == nil {
		return
	}
	m.appsCreated.WithLabelValues(result).Inc()
}

func (m *Metrics) connOpened() {
	if m == nil {
		return
	}
	m.pushConnections.Inc()
}

func (m *Metrics) connClosed() {
	if m == nil {
		return
	}
	m.pushConnections.Dec()
}

func (m *Metrics) bound(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.bindsTotal.WithLabelValues(result).Inc()
	m.bindDuration.Observe(d.Seconds())
}
