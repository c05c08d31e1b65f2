package engine

import "time"

// MetricsObserver defines the interface for observing engine events.
type MetricsObserver interface {
	// OnSegment is called after each sieved window.
	OnSegment(duration time.Duration, slots uint64, primes int)

	// OnBoundGrowth is called when the upper bound was exhausted and grown.
	OnBoundGrowth(from, to uint64)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnSegment(time.Duration, uint64, int) {}
func (NoopMetricsObserver) OnBoundGrowth(uint64, uint64)         {}
