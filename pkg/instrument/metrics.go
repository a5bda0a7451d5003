package instrument

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/kvstore/pkg/store"
)

// MetricsConfig configures the Prometheus instrument.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "kvstore").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for notification duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus instrument.
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

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "kvstore",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors for one store.
type metrics struct {
	writesTotal        *prometheus.CounterVec
	notificationsTotal prometheus.Counter
	observersNotified  prometheus.Counter
	notifyDuration     prometheus.Histogram
	orphanedTotal      prometheus.Counter
}

// Prometheus returns a store.Instrument that records store activity.
//
// Metrics collected:
//   - kvstore_writes_total: Counter of committed writes by op (set, initialize, delete)
//   - kvstore_notifications_total: Counter of notification passes
//   - kvstore_observers_notified_total: Counter of observer invocations
//   - kvstore_notify_duration_seconds: Histogram of notification pass duration
//   - kvstore_orphaned_unsubscribes_total: Counter of unsubscribes from keys without observers
//
// Keys are deliberately not used as labels.
//
// Registering twice against the same registry panics, so create one
// instrument per registry:
//
//	reg := prometheus.NewRegistry()
//	s := store.New(store.WithInstrument(instrument.Prometheus(
//	    instrument.WithRegistry(reg),
//	)))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func Prometheus(opts ...MetricsOption) store.Instrument {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if len(config.Buckets) == 0 {
		config.Buckets = prometheus.DefBuckets
	}

	factory := promauto.With(config.Registry)

	return &metrics{
		writesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_total",
			Help:        "Total number of committed store writes",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		notificationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of observer notification passes",
			ConstLabels: config.ConstLabels,
		}),

		observersNotified: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "observers_notified_total",
			Help:        "Total number of observer invocations",
			ConstLabels: config.ConstLabels,
		}),

		notifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notify_duration_seconds",
			Help:        "Duration of a notification pass in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		orphanedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "orphaned_unsubscribes_total",
			Help:        "Total number of unsubscribes from keys with no observers",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *metrics) Write(op store.Op, _ store.Key) {
	m.writesTotal.WithLabelValues(string(op)).Inc()
}

func (m *metrics) Notify(_ store.Key, observers int) func() {
	m.notificationsTotal.Inc()
	m.observersNotified.Add(float64(observers))
	start := time.Now()
	return func() {
		m.notifyDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *metrics) Orphaned(store.Key) {
	m.orphanedTotal.Inc()
}
