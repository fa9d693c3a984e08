// Package prom exports container metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	c, err := sortedvec.NewContainer(cmp.Compare[int],
//	    dynamize.WithMetricsCollector(prom.New(reg)),
//	)
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/dynamize"
)

var _ dynamize.MetricsCollector = (*Collector)(nil)

// Collector implements dynamize.MetricsCollector with Prometheus metrics.
type Collector struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	merged     prometheus.Histogram
	blocks     prometheus.Histogram
	batch      prometheus.Histogram
	live       prometheus.Gauge
}

// Options configures New.
type Options struct {
	// Namespace prefixes every metric name. Default: "dynamize".
	Namespace string

	// ConstLabels are attached to every metric, e.g. {"container": "queue"}.
	ConstLabels prometheus.Labels
}

// New registers the metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer, optFns ...func(*Options)) *Collector {
	opts := Options{Namespace: "dynamize"}
	for _, fn := range optFns {
		fn(&opts)
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "operations_total",
			Help:        "Number of container operations by type and outcome",
			ConstLabels: opts.ConstLabels,
		}, []string{"op", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "operation_duration_seconds",
			Help:        "Latency of container operations",
			ConstLabels: opts.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"op"}),
		merged: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "merged_elements",
			Help:        "Elements fed to the static build by one insert",
			ConstLabels: opts.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 2, 24),
		}),
		blocks: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "query_blocks",
			Help:        "Blocks visited by one query",
			ConstLabels: opts.ConstLabels,
			Buckets:     prometheus.LinearBuckets(0, 4, 16),
		}),
		batch: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "batch_insert_size",
			Help:        "Elements per batch insert",
			ConstLabels: opts.ConstLabels,
			Buckets:     prometheus.ExponentialBuckets(1, 4, 10),
		}),
		live: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "rebuild_live_elements",
			Help:        "Live elements after the last global rebuild",
			ConstLabels: opts.ConstLabels,
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	c.operations.WithLabelValues(op, status(err)).Inc()
	c.duration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordInsert implements dynamize.MetricsCollector.
func (c *Collector) RecordInsert(merged int, d time.Duration, err error) {
	c.observe("insert", d, err)
	if err == nil {
		c.merged.Observe(float64(merged))
	}
}

// RecordBatchInsert implements dynamize.MetricsCollector.
func (c *Collector) RecordBatchInsert(count, merged int, d time.Duration, err error) {
	c.observe("batch_insert", d, err)
	if err == nil {
		c.batch.Observe(float64(count))
		c.merged.Observe(float64(merged))
	}
}

// RecordQuery implements dynamize.MetricsCollector.
func (c *Collector) RecordQuery(blocks int, d time.Duration, err error) {
	c.observe("query", d, err)
	c.blocks.Observe(float64(blocks))
}

// RecordDelete implements dynamize.MetricsCollector.
func (c *Collector) RecordDelete(d time.Duration, err error) {
	c.observe("delete", d, err)
}

// RecordRebuild implements dynamize.MetricsCollector.
func (c *Collector) RecordRebuild(live int, d time.Duration, err error) {
	c.observe("rebuild", d, err)
	if err == nil {
		c.live.Set(float64(live))
	}
}
