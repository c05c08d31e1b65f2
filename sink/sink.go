package sink

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/primegen/internal/fs"
)

// ErrClosed is returned when writing to a finished sink.
var ErrClosed = errors.New("sink: already closed")

// Sink is an export destination.
type Sink interface {
	io.Writer

	// Close flushes and commits the output.
	Close() error

	// Abort stops the output without committing it. It is a no-op after
	// Close.
	Abort() error

	// Location describes where the output goes (a path or URL).
	Location() string
}

// Compression selects the encoding of a local file sink.
type Compression int

const (
	None Compression = iota
	Zstd
	LZ4
)

func (c Compression) String() string {
	switch c {
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "none"
	}
}

// CompressionFor infers the compression from the path extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

// flushCloser is the encoder stacked on top of the file.
type flushCloser interface {
	io.Writer
	Close() error
}

type fileSink struct {
	mu   sync.Mutex
	f    fs.File
	enc  flushCloser // nil for plain text
	path string
	done bool
}

// Create opens path for writing, truncating any existing file. The
// compression is chosen by CompressionFor.
func Create(fsys fs.FileSystem, path string) (Sink, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	s := &fileSink{f: f, path: path}
	switch CompressionFor(path) {
	case Zstd:
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		s.enc = enc
	case LZ4:
		s.enc = lz4.NewWriter(f)
	}
	return s, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return 0, ErrClosed
	}
	if s.enc != nil {
		return s.enc.Write(p)
	}
	return s.f.Write(p)
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	s.done = true
	return s.finish(true)
}

// Abort finalizes the encoder so the partial output stays readable, then
// releases the file without syncing.
func (s *fileSink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil
	}
	s.done = true
	return s.finish(false)
}

func (s *fileSink) finish(sync bool) error {
	var errs []error
	if s.enc != nil {
		errs = append(errs, s.enc.Close())
	}
	if sync {
		errs = append(errs, s.f.Sync())
	}
	errs = append(errs, s.f.Close())
	return errors.Join(errs...)
}

func (s *fileSink) Location() string { return s.path }
