package store

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when writing to a closed Writer.
	ErrClosed = errors.New("store: writer is closed")

	// ErrFull is returned when an append would exceed the store capacity.
	ErrFull = errors.New("store: append exceeds capacity")

	// ErrStaleStore is returned when a leftover file at the store path
	// cannot be removed.
	ErrStaleStore = errors.New("store: cannot remove stale store file")

	// ErrOutOfRange is returned when reading past the clamped prefix.
	ErrOutOfRange = errors.New("store: index out of range")
)

// InsufficientSpaceError reports a failed disk-space preflight.
type InsufficientSpaceError struct {
	Dir      string
	Required uint64
	Free     uint64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space in %s: required ≈ %.2f GiB, free ≈ %.2f GiB",
		e.Dir, GiB(e.Required), GiB(e.Free))
}

// VerifyError describes the first entry that breaks the store invariants.
type VerifyError struct {
	Index  uint64
	Value  uint64
	Reason string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("store: entry %d (%d) %s", e.Index, e.Value, e.Reason)
}

// GiB converts bytes to binary gigabytes.
func GiB(bytes uint64) float64 {
	return float64(bytes) / (1 << 30)
}
