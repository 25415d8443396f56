package datacube

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordAddRow is called after each AddRow.
	RecordAddRow(duration time.Duration, err error)

	// RecordQuery is called after each query or transform. op names the
	// operation ("select", "where", ...), rows is the result row count.
	RecordQuery(op string, rows int, duration time.Duration, err error)

	// RecordSave is called after each Save with the bytes written.
	RecordSave(bytes int64, duration time.Duration, err error)

	// RecordLoad is called after each Load with the bytes read.
	RecordLoad(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAddRow(time.Duration, error)              {}
func (NoopMetricsCollector) RecordQuery(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSave(int64, time.Duration, error)         {}
func (NoopMetricsCollector) RecordLoad(int64, time.Duration, error)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddRowCount      atomic.Int64
	AddRowErrors     atomic.Int64
	AddRowTotalNanos atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryRows        atomic.Int64
	QueryTotalNanos  atomic.Int64
	SaveCount        atomic.Int64
	SaveErrors       atomic.Int64
	SaveBytes        atomic.Int64
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	LoadBytes        atomic.Int64
}

// RecordAddRow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddRow(duration time.Duration, err error) {
	b.AddRowCount.Add(1)
	b.AddRowTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddRowErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ string, rows int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
		return
	}
	b.QueryRows.Add(int64(rows))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int64, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SaveBytes.Add(bytes)
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(bytes int64, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddRowCount:    b.AddRowCount.Load(),
		AddRowErrors:   b.AddRowErrors.Load(),
		AddRowAvgNanos: avg(b.AddRowTotalNanos.Load(), b.AddRowCount.Load()),
		QueryCount:     b.QueryCount.Load(),
		QueryErrors:    b.QueryErrors.Load(),
		QueryRows:      b.QueryRows.Load(),
		QueryAvgNanos:  avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		SaveCount:      b.SaveCount.Load(),
		SaveErrors:     b.SaveErrors.Load(),
		SaveBytes:      b.SaveBytes.Load(),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		LoadBytes:      b.LoadBytes.Load(),
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
	AddRowCount    int64
	AddRowErrors   int64
	AddRowAvgNanos int64
	QueryCount     int64
	QueryErrors    int64
	QueryRows      int64
	QueryAvgNanos  int64
	SaveCount      int64
	SaveErrors     int64
	SaveBytes      int64
	LoadCount      int64
	LoadErrors     int64
	LoadBytes      int64
}
