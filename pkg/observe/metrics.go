package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/edfloreshz/gooey/pkg/value"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "gooey").
	Namespace string

	// Subsystem is the metrics subsystem (default: "value").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for callback run duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
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
		Namespace: "gooey",
		Subsystem: "value",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records value events as Prometheus metrics.
//
// Metrics collected (with the default namespace and subsystem):
//   - gooey_value_callback_runs_total: Counter of callback set runs
//   - gooey_value_callbacks_invoked_total: Counter of individual callbacks run
//   - gooey_value_callback_run_duration_seconds: Histogram of run duration
//   - gooey_value_callbacks_skipped_total: Counter of coalesced runs by reason
//   - gooey_value_callback_errors_total: Counter of failed callbacks
//   - gooey_value_deadlocks_total: Counter of detected deadlocks
//   - gooey_value_disconnects_total: Counter of disconnected cells
//   - gooey_value_batch_flushes_total: Counter of invalidation deliveries
//   - gooey_value_batch_targets: Histogram of targets per delivery
type Metrics struct {
	runsTotal      prometheus.Counter
	invokedTotal   prometheus.Counter
	runDuration    prometheus.Histogram
	skippedTotal   *prometheus.CounterVec
	errorsTotal    prometheus.Counter
	deadlocksTotal prometheus.Counter
	disconnects    prometheus.Counter
	flushesTotal   prometheus.Counter
	batchTargets   prometheus.Histogram
}

// NewMetrics registers the value metrics and returns an observer that
// updates them. It panics if the metrics are already registered with the
// chosen registry.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		runsTotal:    counter("callback_runs_total", "Total number of callback set runs"),
		invokedTotal: counter("callbacks_invoked_total", "Total number of individual callbacks invoked"),

		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "callback_run_duration_seconds",
			Help:        "Callback set run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		skippedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "callbacks_skipped_total",
			Help:        "Total number of coalesced callback runs by reason",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		errorsTotal:    counter("callback_errors_total", "Total number of callbacks that returned an error"),
		deadlocksTotal: counter("deadlocks_total", "Total number of detected deadlocks"),
		disconnects:    counter("disconnects_total", "Total number of cells whose writers were all released"),
		flushesTotal:   counter("batch_flushes_total", "Total number of invalidation deliveries"),

		batchTargets: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_targets",
			Help:        "Number of targets notified per invalidation delivery",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),
	}
}

func (m *Metrics) CallbacksInvoked(_ value.CellID, callbacks int, elapsed time.Duration) {
	m.runsTotal.Inc()
	m.invokedTotal.Add(float64(callbacks))
	m.runDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) CallbacksSkipped(_ value.CellID, reason value.SkipReason) {
	m.skippedTotal.WithLabelValues(reason.String()).Inc()
}

func (m *Metrics) CallbackFailed(value.CellID, error) {
	m.errorsTotal.Inc()
}

func (m *Metrics) DeadlockDetected(value.CellID) {
	m.deadlocksTotal.Inc()
}

func (m *Metrics) Disconnected(value.CellID) {
	m.disconnects.Inc()
}

func (m *Metrics) BatchFlushed(targets int) {
	m.flushesTotal.Inc()
	m.batchTargets.Observe(float64(targets))
}
