package primegen

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// observability package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordSegment is called after each sieved window with the number of
	// odd values it covered and the primes it contributed.
	RecordSegment(duration time.Duration, slots uint64, primes int)

	// RecordBoundGrowth is called when a run exhausted its upper bound.
	RecordBoundGrowth(from, to uint64)

	// RecordRun is called once per generation with its terminal state.
	RecordRun(state State, found uint64, duration time.Duration, err error)

	// RecordExport is called once per export.
	RecordExport(written uint64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSegment(time.Duration, uint64, int)      {}
func (NoopMetricsCollector) RecordBoundGrowth(uint64, uint64)              {}
func (NoopMetricsCollector) RecordRun(State, uint64, time.Duration, error) {}
func (NoopMetricsCollector) RecordExport(uint64, time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SegmentCount      atomic.Int64
	SegmentSlots      atomic.Int64
	SegmentPrimes     atomic.Int64
	SegmentTotalNanos atomic.Int64
	BoundGrowths      atomic.Int64
	RunsDone          atomic.Int64
	RunsStopped       atomic.Int64
	RunsFailed        atomic.Int64
	PrimesFound       atomic.Int64
	ExportCount       atomic.Int64
	ExportErrors      atomic.Int64
	ExportedEntries   atomic.Int64
}

// RecordSegment implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSegment(duration time.Duration, slots uint64, primes int) {
	b.SegmentCount.Add(1)
	b.SegmentSlots.Add(int64(slots))
	b.SegmentPrimes.Add(int64(primes))
	b.SegmentTotalNanos.Add(duration.Nanoseconds())
}

// RecordBoundGrowth implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBoundGrowth(uint64, uint64) {
	b.BoundGrowths.Add(1)
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(state State, found uint64, _ time.Duration, _ error) {
	switch state {
	case StateDone:
		b.RunsDone.Add(1)
	case StateStopped:
		b.RunsStopped.Add(1)
	default:
		b.RunsFailed.Add(1)
	}
	b.PrimesFound.Add(int64(found))
}

// RecordExport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExport(written uint64, _ time.Duration, err error) {
	b.ExportCount.Add(1)
	b.ExportedEntries.Add(int64(written))
	if err != nil {
		b.ExportErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SegmentCount:    b.SegmentCount.Load(),
		SegmentPrimes:   b.SegmentPrimes.Load(),
		SegmentAvgNanos: b.getAvgSegmentNanos(),
		BoundGrowths:    b.BoundGrowths.Load(),
		RunsDone:        b.RunsDone.Load(),
		RunsStopped:     b.RunsStopped.Load(),
		RunsFailed:      b.RunsFailed.Load(),
		PrimesFound:     b.PrimesFound.Load(),
		ExportCount:     b.ExportCount.Load(),
		ExportErrors:    b.ExportErrors.Load(),
		ExportedEntries: b.ExportedEntries.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSegmentNanos() int64 {
	count := b.SegmentCount.Load()
	if count == 0 {
		return 0
	}
	return b.SegmentTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SegmentCount    int64
	SegmentPrimes   int64
	SegmentAvgNanos int64
	BoundGrowths    int64
	RunsDone        int64
	RunsStopped     int64
	RunsFailed      int64
	PrimesFound     int64
	ExportCount     int64
	ExportErrors    int64
	ExportedEntries int64
}

// engineMetrics forwards engine events to a MetricsCollector.
type engineMetrics struct {
	c MetricsCollector
}

func (m engineMetrics) OnSegment(d time.Duration, slots uint64, primes int) {
	m.c.RecordSegment(d, slots, primes)
}

func (m engineMetrics) OnBoundGrowth(from, to uint64) {
	m.c.RecordBoundGrowth(from, to)
}
