package mmap

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"
)

// ValueSize is the width of one stored value in bytes.
const ValueSize = 8

var (
	// ErrClosed is returned when advising a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")

	// ErrPartialValue is returned when a file does not hold whole values.
	ErrPartialValue = errors.New("mmap: file size is not a multiple of 8")
)

// Access is a paging hint for the kernel.
type Access int

const (
	AccessNormal Access = iota
	// AccessSequential suits export and verification, which read front to back.
	AccessSequential
	// AccessRandom suits paged browsing.
	AccessRandom
	// AccessDontNeed lets the kernel drop cached pages early.
	AccessDontNeed
)

// Mapping is a read-only view of a file of host-order uint64 values.
type Mapping struct {
	data   []byte
	values []uint64
	closed atomic.Bool
	unmap  func() error
}

// Open maps the file at path. A file whose size is not a multiple of
// ValueSize is rejected with ErrPartialValue.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size%ValueSize != 0 {
		return nil, fmt.Errorf("%w: %s has %d bytes", ErrPartialValue, path, size)
	}
	if size == 0 {
		return &Mapping{}, nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("mmap: %s too large to map (%d bytes)", path, size)
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("mmap: map %s: %w", path, err)
	}
	// Mappings are page aligned, so the view is aligned for uint64.
	values := unsafe.Slice((*uint64)(unsafe.Pointer(unsafe.SliceData(data))), len(data)/ValueSize)
	return &Mapping{data: data, values: values, unmap: unmap}, nil
}

// Values returns the mapped values, or nil after Close. The slice is valid
// only until Close and must not be written.
func (m *Mapping) Values() []uint64 {
	if m.closed.Load() {
		return nil
	}
	return m.values
}

// Len returns the number of mapped values.
func (m *Mapping) Len() int {
	return len(m.values)
}

// Advise passes a paging hint to the kernel. It is a no-op where the
// platform has no equivalent.
func (m *Mapping) Advise(a Access) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(m.data) == 0 {
		return nil
	}
	return osAdvise(m.data, a)
}

// Close unmaps the file. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) || m.unmap == nil {
		return nil
	}
	return m.unmap()
}
