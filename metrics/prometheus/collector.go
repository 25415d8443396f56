// Package prometheus exports cube operation metrics to Prometheus.
//
//	collector := prometheus.New()
//	registry.MustRegister(collector)
//	c, _ := datacube.New(dims, metrics, datacube.WithMetricsCollector(collector))
package prometheus

import (
	"time"

	"github.com/hupe1980/datacube"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ datacube.MetricsCollector = (*Collector)(nil)
	_ prometheus.Collector      = (*Collector)(nil)
)

type options struct {
	namespace   string
	constLabels prometheus.Labels
	buckets     []float64
}

// Option configures a Collector.
type Option func(*options)

// WithNamespace sets the metric namespace. Default: "datacube".
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithConstLabels attaches labels to every metric, e.g. the cube name.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(o *options) {
		o.constLabels = labels
	}
}

// WithBuckets sets the latency histogram buckets in seconds.
func WithBuckets(buckets []float64) Option {
	return func(o *options) {
		o.buckets = buckets
	}
}

// Collector implements datacube.MetricsCollector with Prometheus metrics.
// Register it with a prometheus.Registerer to expose the metrics.
type Collector struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	rows       *prometheus.CounterVec
	bytes      *prometheus.CounterVec
}

// New creates a Collector. The metrics are not registered.
func New(opts ...Option) *Collector {
	o := options{
		namespace: "datacube",
		buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "operations_total",
			Help:        "Total cube operations by operation and status.",
			ConstLabels: o.constLabels,
		}, []string{"op", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   o.namespace,
			Name:        "operation_duration_seconds",
			Help:        "Latency of cube operations.",
			ConstLabels: o.constLabels,
			Buckets:     o.buckets,
		}, []string{"op"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "query_rows_total",
			Help:        "Rows produced by queries and transforms.",
			ConstLabels: o.constLabels,
		}, []string{"op"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   o.namespace,
			Name:        "persisted_bytes_total",
			Help:        "Bytes written by Save and read by Load.",
			ConstLabels: o.constLabels,
		}, []string{"direction"}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.operations.Describe(ch)
	c.latency.Describe(ch)
	c.rows.Describe(ch)
	c.bytes.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.operations.Collect(ch)
	c.latency.Collect(ch)
	c.rows.Collect(ch)
	c.bytes.Collect(ch)
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.operations.WithLabelValues(op, status).Inc()
	c.latency.WithLabelValues(op).Observe(d.Seconds())
}

// RecordAddRow implements datacube.MetricsCollector.
func (c *Collector) RecordAddRow(d time.Duration, err error) {
	c.observe("add_row", d, err)
}

// RecordQuery implements datacube.MetricsCollector.
func (c *Collector) RecordQuery(op string, rows int, d time.Duration, err error) {
	c.observe(op, d, err)
	if err == nil {
		c.rows.WithLabelValues(op).Add(float64(rows))
	}
}

// RecordSave implements datacube.MetricsCollector.
func (c *Collector) RecordSave(bytes int64, d time.Duration, err error) {
	c.observe("save", d, err)
	if err == nil {
		c.bytes.WithLabelValues("save").Add(float64(bytes))
	}
}

// RecordLoad implements datacube.MetricsCollector.
func (c *Collector) RecordLoad(bytes int64, d time.Duration, err error) {
	c.observe("load", d, err)
	if err == nil {
		c.bytes.WithLabelValues("load").Add(float64(bytes))
	}
}
