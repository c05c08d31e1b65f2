package store

import (
	"github.com/hupe1980/primegen/internal/mmap"
)

// DefaultPageSize is the number of entries per browsing page.
const DefaultPageSize = 10_000_000

// Reader gives read-only, zero-copy access to a store file.
type Reader struct {
	m      *mmap.Mapping
	values []uint64
	path   string
}

// Open maps the store at path.
func Open(path string) (*Reader, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{m: m, values: m.Values(), path: path}, nil
}

// Path returns the store file path.
func (r *Reader) Path() string { return r.path }

// Len returns the number of slots in the file.
func (r *Reader) Len() uint64 { return uint64(len(r.values)) }

// Clamp bounds n to the number of slots.
func (r *Reader) Clamp(n uint64) uint64 {
	return min(n, r.Len())
}

// At returns entry i of the prefix [0, found).
func (r *Reader) At(i, found uint64) (uint64, error) {
	if i >= r.Clamp(found) {
		return 0, ErrOutOfRange
	}
	return r.values[i], nil
}

// Slice returns entries [from, to) clamped to the prefix [0, found).
// The slice aliases the mapping and is valid until Close.
func (r *Reader) Slice(from, to, found uint64) []uint64 {
	end := min(to, r.Clamp(found))
	if from >= end {
		return nil
	}
	return r.values[from:end]
}

// Page returns page number page (0-based) of the prefix [0, found).
func (r *Reader) Page(page, pageSize, found uint64) []uint64 {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	from := page * pageSize
	return r.Slice(from, from+pageSize, found)
}

// Sequential hints the kernel that the mapping will be read front to back.
func (r *Reader) Sequential() error {
	return r.m.Advise(mmap.AccessSequential)
}

// Close unmaps the store.
func (r *Reader) Close() error {
	r.values = nil
	return r.m.Close()
}

// PageOf returns the page holding entry index.
func PageOf(index, pageSize uint64) uint64 {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	return index / pageSize
}

// PageCount returns the number of pages needed for found entries.
func PageCount(found, pageSize uint64) uint64 {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	return (found + pageSize - 1) / pageSize
}
