package dynamize

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// see package metrics/prom for a ready-made adapter.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	// merged is the number of elements fed to the static build.
	RecordInsert(merged int, duration time.Duration, err error)

	// RecordBatchInsert is called after each batch insert operation.
	// count is the number of elements in the batch.
	RecordBatchInsert(count, merged int, duration time.Duration, err error)

	// RecordQuery is called after each query. blocks is the number of blocks visited.
	RecordQuery(blocks int, duration time.Duration, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordRebuild is called after each global rebuild.
	// live is the number of elements that survived.
	RecordRebuild(live int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(int, time.Duration, error)           {}
func (NoopMetricsCollector) RecordBatchInsert(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error)            {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)                {}
func (NoopMetricsCollector) RecordRebuild(int, time.Duration, error)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount       atomic.Int64
	InsertErrors      atomic.Int64
	InsertTotalNanos  atomic.Int64
	MergedElements    atomic.Int64
	MaxMerged         atomic.Int64
	BatchInsertCount  atomic.Int64
	BatchInsertItems  atomic.Int64
	BatchInsertErrors atomic.Int64
	QueryCount        atomic.Int64
	QueryErrors       atomic.Int64
	QueryTotalNanos   atomic.Int64
	QueryBlocks       atomic.Int64
	DeleteCount       atomic.Int64
	DeleteErrors      atomic.Int64
	RebuildCount      atomic.Int64
	RebuildErrors     atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(merged int, duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
		return
	}
	b.recordMerged(merged)
}

// RecordBatchInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchInsert(count, merged int, duration time.Duration, err error) {
	b.BatchInsertCount.Add(1)
	b.BatchInsertItems.Add(int64(count))
	if err != nil {
		b.BatchInsertErrors.Add(1)
		return
	}
	b.MergedElements.Add(int64(merged))
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(blocks int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	b.QueryBlocks.Add(int64(blocks))
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordRebuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRebuild(live int, duration time.Duration, err error) {
	b.RebuildCount.Add(1)
	if err != nil {
		b.RebuildErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) recordMerged(merged int) {
	b.MergedElements.Add(int64(merged))
	for {
		cur := b.MaxMerged.Load()
		if int64(merged) <= cur || b.MaxMerged.CompareAndSwap(cur, int64(merged)) {
			return
		}
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:       b.InsertCount.Load(),
		InsertErrors:      b.InsertErrors.Load(),
		InsertAvgNanos:    avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		MergedElements:    b.MergedElements.Load(),
		MaxMerged:         b.MaxMerged.Load(),
		BatchInsertCount:  b.BatchInsertCount.Load(),
		BatchInsertItems:  b.BatchInsertItems.Load(),
		BatchInsertErrors: b.BatchInsertErrors.Load(),
		QueryCount:        b.QueryCount.Load(),
		QueryErrors:       b.QueryErrors.Load(),
		QueryAvgNanos:     avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		QueryAvgBlocks:    avg(b.QueryBlocks.Load(), b.QueryCount.Load()),
		DeleteCount:       b.DeleteCount.Load(),
		DeleteErrors:      b.DeleteErrors.Load(),
		RebuildCount:      b.RebuildCount.Load(),
		RebuildErrors:     b.RebuildErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount       int64
	InsertErrors      int64
	InsertAvgNanos    int64
	MergedElements    int64
	MaxMerged         int64
	BatchInsertCount  int64
	BatchInsertItems  int64
	BatchInsertErrors int64
	QueryCount        int64
	QueryErrors       int64
	QueryAvgNanos     int64
	QueryAvgBlocks    int64
	DeleteCount       int64
	DeleteErrors      int64
	RebuildCount      int64
	RebuildErrors     int64
}
