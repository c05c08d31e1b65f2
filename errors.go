package primegen

import (
	"errors"

	"github.com/hupe1980/primegen/internal/engine"
	"github.com/hupe1980/primegen/internal/export"
	"github.com/hupe1980/primegen/internal/store"
)

var (
	// ErrInvalidCount is returned when the requested count is zero.
	ErrInvalidCount = engine.ErrInvalidCount

	// ErrCountTooLarge is returned when the requested count exceeds MaxCount.
	ErrCountTooLarge = errors.New("count exceeds maximum")

	// ErrInterrupted marks a generation stopped by the caller.
	ErrInterrupted = engine.ErrInterrupted

	// ErrExportInterrupted marks an export stopped by the caller.
	ErrExportInterrupted = export.ErrInterrupted

	// ErrBoundGrowthLimit is wrapped in a RuntimeError when the upper bound
	// had to grow more often than WithMaxBoundGrowth allows.
	ErrBoundGrowthLimit = engine.ErrBoundGrowthLimit

	// ErrBusy is returned when a generation or export is already running.
	ErrBusy = errors.New("worker busy")

	// ErrNoRun is returned when waiting without a started worker.
	ErrNoRun = errors.New("no run started")

	// ErrShutdownTimeout is returned by Close when a worker did not reach a
	// terminal state within the stop wait. The worker keeps running.
	ErrShutdownTimeout = errors.New("shutdown wait elapsed before workers finished")

	// ErrClosed is returned when using a closed Generator.
	ErrClosed = errors.New("generator closed")
)

// ValidationError reports an invalid request. Nothing is allocated when it
// is returned.
type ValidationError = engine.ValidationError

// ResourceError reports missing disk space, file or memory resources.
type ResourceError = engine.ResourceError

// RuntimeError reports any other failure during a run or an export.
type RuntimeError = engine.RuntimeError

// InsufficientSpaceError reports a failed disk-space preflight with the
// required and free byte counts.
type InsufficientSpaceError = store.InsufficientSpaceError

// VerifyError reports the first store entry that is out of order or not
// prime.
type VerifyError = store.VerifyError

// IsInterrupted reports whether err marks a generation or export stopped by
// the caller.
func IsInterrupted(err error) bool {
	return errors.Is(err, ErrInterrupted) || errors.Is(err, ErrExportInterrupted)
}
