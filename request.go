package primegen

import (
	"fmt"
	"os"
	"time"

	"github.com/hupe1980/primegen/internal/engine"
)

const (
	// MaxCount bounds the requested count so that every prime and every
	// window position stays far inside the 64-bit value domain.
	MaxCount = 1 << 40

	// MaxSegmentSize bounds the odd values per sieve window.
	MaxSegmentSize = 1 << 30
)

// Request is a validated generation request. Build it with NewRequest.
type Request struct {
	// Count is the number of primes to generate.
	Count uint64

	// SegmentSize is the number of odd values per sieve window.
	SegmentSize uint64

	// TmpDir is the directory receiving the store file.
	TmpDir string

	// UpdateInterval is the minimum spacing of progress events.
	UpdateInterval time.Duration
}

// RequestOption configures a Request.
type RequestOption func(*Request)

// WithSegmentSize overrides the recommended window size.
func WithSegmentSize(n uint64) RequestOption {
	return func(r *Request) {
		r.SegmentSize = n
	}
}

// WithTmpDir sets the store directory. Default: os.TempDir().
func WithTmpDir(dir string) RequestOption {
	return func(r *Request) {
		r.TmpDir = dir
	}
}

// WithUpdateInterval overrides the recommended progress interval.
func WithUpdateInterval(d time.Duration) RequestOption {
	return func(r *Request) {
		r.UpdateInterval = d
	}
}

// NewRequest builds and validates a Request for count primes. Segment size
// and update interval default to RecommendedSegmentSize and
// RecommendedUpdateInterval.
func NewRequest(count uint64, opts ...RequestOption) (Request, error) {
	r := Request{
		Count:          count,
		SegmentSize:    RecommendedSegmentSize(count),
		TmpDir:         os.TempDir(),
		UpdateInterval: RecommendedUpdateInterval(count),
	}
	for _, opt := range opts {
		opt(&r)
	}
	if err := r.Validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}

// Validate checks r. Start validates again, so hand-built requests are safe.
func (r Request) Validate() error {
	switch {
	case r.Count == 0:
		return engine.NewValidationError("count", r.Count, ErrInvalidCount)
	case r.Count > MaxCount:
		return engine.NewValidationError("count", r.Count, fmt.Errorf("%w %d", ErrCountTooLarge, uint64(MaxCount)))
	case r.SegmentSize == 0 || r.SegmentSize > MaxSegmentSize:
		return engine.NewValidationError("segment size", r.SegmentSize, nil)
	case r.UpdateInterval <= 0:
		return engine.NewValidationError("update interval", r.UpdateInterval, nil)
	case r.TmpDir == "":
		return engine.NewValidationError("tmp dir", `""`, nil)
	}
	return nil
}

// RecommendedSegmentSize scales the window with the count.
func RecommendedSegmentSize(count uint64) uint64 {
	switch {
	case count < 10_000_000:
		return 1 << 20
	case count < 100_000_000:
		return 1 << 21
	case count < 1_000_000_000:
		return 1 << 22
	default:
		return 1 << 23
	}
}

// RecommendedUpdateInterval scales the progress interval with the count.
func RecommendedUpdateInterval(count uint64) time.Duration {
	switch {
	case count < 10_000_000:
		return 40 * time.Millisecond
	case count < 100_000_000:
		return 60 * time.Millisecond
	case count < 1_000_000_000:
		return 90 * time.Millisecond
	default:
		return 125 * time.Millisecond
	}
}
