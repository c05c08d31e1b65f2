package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInterrupted is returned when the caller stopped the run.
	ErrInterrupted = errors.New("generation interrupted by caller")

	// ErrInvalidCount is returned when the requested count is zero.
	ErrInvalidCount = errors.New("count must be positive")

	// ErrBoundGrowthLimit is returned when the upper bound had to grow more
	// often than allowed.
	ErrBoundGrowthLimit = errors.New("upper bound growth limit reached")
)

// ValidationError reports an invalid run configuration. Nothing has been
// allocated when it is returned.
type ValidationError struct {
	Field string
	Value any
	cause error
}

func (e *ValidationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.cause)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.cause }

// NewValidationError returns a ValidationError for field.
func NewValidationError(field string, value any, cause error) *ValidationError {
	return &ValidationError{Field: field, Value: value, cause: cause}
}

// ResourceError reports a failure to obtain disk space, files or memory.
//
// The underlying error (for example a *store.InsufficientSpaceError) can be
// accessed via errors.Unwrap.
type ResourceError struct {
	Op    string
	Path  string
	cause error
}

func (e *ResourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.cause)
}

func (e *ResourceError) Unwrap() error { return e.cause }

// RuntimeError reports any other failure during a run.
type RuntimeError struct {
	Phase string
	cause error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Phase, e.cause)
}

func (e *RuntimeError) Unwrap() error { return e.cause }

// NewRuntimeError returns a RuntimeError for phase.
func NewRuntimeError(phase string, cause error) *RuntimeError {
	return &RuntimeError{Phase: phase, cause: cause}
}

// NewResourceError returns a ResourceError for op on path.
func NewResourceError(op, path string, cause error) *ResourceError {
	return &ResourceError{Op: op, Path: path, cause: cause}
}
