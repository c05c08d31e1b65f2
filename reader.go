package primegen

import (
	"context"

	"github.com/hupe1980/primegen/internal/engine"
	"github.com/hupe1980/primegen/internal/store"
)

// DefaultPageSize is the number of entries per browsing page.
const DefaultPageSize = store.DefaultPageSize

// ErrOutOfRange is returned when reading past the defined prefix.
var ErrOutOfRange = store.ErrOutOfRange

// StoreReader gives read-only access to a store file. It may be opened while
// a generation still writes the store; every read takes the caller's last
// observed found count and is clamped to that prefix.
type StoreReader struct {
	r *store.Reader
}

// OpenStore maps the store at path.
func OpenStore(path string) (*StoreReader, error) {
	r, err := store.Open(path)
	if err != nil {
		return nil, engine.NewResourceError("open store", path, err)
	}
	return &StoreReader{r: r}, nil
}

// Len returns the capacity of the store in entries.
func (s *StoreReader) Len() uint64 { return s.r.Len() }

// At returns entry i of the prefix [0, found).
func (s *StoreReader) At(i, found uint64) (uint64, error) {
	return s.r.At(i, found)
}

// Page returns page number page (0-based) of the prefix [0, found). A
// pageSize of 0 selects DefaultPageSize. The returned slice is valid until
// Close and must not be modified.
func (s *StoreReader) Page(page, pageSize, found uint64) []uint64 {
	return s.r.Page(page, pageSize, found)
}

// PageOf returns the page holding entry index.
func (s *StoreReader) PageOf(index, pageSize uint64) uint64 {
	return store.PageOf(index, pageSize)
}

// PageCount returns the number of pages of the prefix [0, found).
func (s *StoreReader) PageCount(found, pageSize uint64) uint64 {
	return store.PageCount(s.r.Clamp(found), pageSize)
}

// Verify checks that the prefix [0, found) is strictly increasing and holds
// only primes. It returns a *VerifyError for the first bad entry.
func (s *StoreReader) Verify(ctx context.Context, found uint64) error {
	return store.Verify(ctx, s.r.Slice(0, found, found))
}

// Close unmaps the store.
func (s *StoreReader) Close() error {
	return s.r.Close()
}
