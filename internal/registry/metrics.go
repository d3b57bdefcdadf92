package registry

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/namereg/internal/ir"
)

// Metrics holds the Prometheus collectors for a Registry. A nil *Metrics
// records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	records    prometheus.Gauge
	feesOwed   *prometheus.CounterVec
}

// MetricsConfig configures NewMetrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "namereg").
	Namespace string

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithRegisterer sets the Prometheus registry.
func WithRegisterer(reg prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = reg
	}
}

// NewMetrics creates and registers the registry collectors.
//
// Metrics collected:
//   - namereg_operations_total: operations by name and result
//   - namereg_records: number of registered names
//   - namereg_fees_total: fee amounts attached to registrations, by denom
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := MetricsConfig{
		Namespace: "namereg",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "operations_total",
			Help:      "Total registry operations by result",
		}, []string{"operation", "result"}),

		records: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "records",
			Help:      "Number of registered names",
		}),

		feesOwed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "fees_total",
			Help:      "Fee amounts attached to successful registrations",
		}, []string{"denom"}),
	}
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, resultLabel(err)).Inc()
}

func (m *Metrics) setRecords(n int) {
	if m == nil {
		return
	}
	m.records.Set(float64(n))
}

func (m *Metrics) addRecord(price ir.Coin) {
	if m == nil {
		return
	}
	m.records.Inc()
	m.feesOwed.WithLabelValues(price.Denom).Add(float64(price.Amount))
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if k := KindOf(err); k != "" {
		return strings.ToLower(string(k))
	}
	return "internal"
}
