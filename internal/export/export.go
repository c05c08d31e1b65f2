// Package export streams a prime store to a newline-delimited text sink.
package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/hupe1980/primegen/internal/store"
)

const (
	// DefaultBlockSize is the number of entries written between
	// cancellation checks and progress callbacks.
	DefaultBlockSize = 10_000_000

	// DefaultBufferSize is the output buffer size.
	DefaultBufferSize = 16 << 20
)

// ErrInterrupted is returned when the caller stopped the export.
var ErrInterrupted = errors.New("export interrupted by caller")

// Options configures Stream.
type Options struct {
	BlockSize  uint64
	BufferSize int

	// Progress is called with (written, total) after every block.
	Progress func(written, total uint64)
}

// Stream writes entries [0, min(count, r.Len())) of r to w, one decimal
// number per line and without a trailing newline. It returns the number of
// entries written.
//
// Cancellation is checked at block boundaries. On cancellation the bytes
// already produced are flushed to w and an error wrapping ErrInterrupted is
// returned.
func Stream(ctx context.Context, r *store.Reader, count uint64, w io.Writer, optFns ...func(*Options)) (uint64, error) {
	opts := Options{
		BlockSize:  DefaultBlockSize,
		BufferSize: DefaultBufferSize,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BlockSize == 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}

	total := r.Clamp(count)
	bw := bufio.NewWriterSize(w, opts.BufferSize)
	line := make([]byte, 0, 24)

	var written uint64
	for written < total {
		if err := ctx.Err(); err != nil {
			if ferr := bw.Flush(); ferr != nil {
				return written, errors.Join(fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx)), ferr)
			}
			return written, fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
		}

		block := r.Slice(written, written+opts.BlockSize, total)
		for i, v := range block {
			line = line[:0]
			if written > 0 || i > 0 {
				line = append(line, '\n')
			}
			line = strconv.AppendUint(line, v, 10)
			if _, err := bw.Write(line); err != nil {
				return written + uint64(i), err
			}
		}
		written += uint64(len(block))

		if opts.Progress != nil {
			opts.Progress(written, total)
		}
	}

	if err := bw.Flush(); err != nil {
		return written, err
	}
	return written, nil
}
