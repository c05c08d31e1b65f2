// Package ledger records the outcome of every generation run.
package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/primegen/codec"
	"github.com/hupe1980/primegen/internal/fs"
)

// ErrClosed is returned when appending to a closed ledger.
var ErrClosed = errors.New("ledger: closed")

// Record is the terminal outcome of one run.
type Record struct {
	RunID     string        `json:"run_id"`
	StorePath string        `json:"store_path"`
	State     string        `json:"state"`
	Count     uint64        `json:"count"`
	Found     uint64        `json:"found"`
	MaxPrime  uint64        `json:"max_prime"`
	Sum       uint64        `json:"sum"`
	Average   float64       `json:"average"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Error     string        `json:"error,omitempty"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Ledger persists run records.
type Ledger interface {
	Append(ctx context.Context, rec Record) error
	Close() error
}

// Noop discards every record.
type Noop struct{}

func (Noop) Append(context.Context, Record) error { return nil }
func (Noop) Close() error                         { return nil }

// File is a Ledger that appends one JSON line per record.
type File struct {
	mu     sync.Mutex
	f      fs.File
	codec  codec.Codec
	closed bool
}

// OpenFile opens (or creates) a JSON-lines ledger at path.
func OpenFile(fsys fs.FileSystem, path string, c codec.Codec) (*File, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	if c == nil {
		c = codec.Default
	}
	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	return &File{f: f, codec: c}, nil
}

// Append writes rec and syncs the file.
func (l *File) Append(_ context.Context, rec Record) error {
	data, err := codec.MarshalLine(l.codec, rec)
	if err != nil {
		return fmt.Errorf("ledger: encode %s: %w", rec.RunID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if _, err := l.f.Write(data); err != nil {
		return fmt.Errorf("ledger: write %s: %w", rec.RunID, err)
	}
	return l.f.Sync()
}

// Close closes the ledger file.
func (l *File) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.f.Close()
}

// ReadFile decodes all records of a JSON-lines ledger.
func ReadFile(path string, c codec.Codec) ([]Record, error) {
	if c == nil {
		c = codec.Default
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var recs []Record
	err = codec.ScanLines(bytes.NewReader(data), func(line int, b []byte) error {
		var rec Record
		if err := c.Unmarshal(b, &rec); err != nil {
			return fmt.Errorf("ledger: %s line %d: %w", path, line, err)
		}
		recs = append(recs, rec)
		return nil
	})
	return recs, err
}
