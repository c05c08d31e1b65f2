package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hupe1980/primegen/internal/fs"
)

// Options configures store creation.
type Options struct {
	Logger *slog.Logger

	// RemoveAttempts bounds the deletion attempts for a stale file at the
	// store path. Default: 3.
	RemoveAttempts uint64

	// RemoveBackoff is the pause between deletion attempts. Default: 50ms.
	RemoveBackoff time.Duration
}

// Writer appends primes to a freshly created store file.
//
// Writer is not safe for concurrent use; it belongs to the single producer
// of a run.
type Writer struct {
	f        fs.File
	path     string
	capacity uint64
	found    uint64
	buf      []byte
	closed   bool
	logger   *slog.Logger
}

// Create removes any stale file at path and creates a store of exactly
// capacity slots.
func Create(fsys fs.FileSystem, path string, capacity uint64, optFns ...func(*Options)) (*Writer, error) {
	opts := Options{
		RemoveAttempts: 3,
		RemoveBackoff:  50 * time.Millisecond,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.RemoveAttempts == 0 {
		opts.RemoveAttempts = 1
	}

	if err := removeStale(fsys, path, opts); err != nil {
		return nil, err
	}

	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", path, err)
	}
	if err := fsys.Truncate(path, int64(capacity*SlotSize)); err != nil {
		_ = f.Close()
		_ = fsys.Remove(path)
		return nil, fmt.Errorf("store: size %s: %w", path, err)
	}

	opts.Logger.Debug("store created", "path", path, "capacity", capacity)

	return &Writer{
		f:        f,
		path:     path,
		capacity: capacity,
		logger:   opts.Logger,
	}, nil
}

func removeStale(fsys fs.FileSystem, path string, opts Options) error {
	if _, err := fsys.Stat(path); os.IsNotExist(err) {
		return nil
	}

	op := func() error {
		err := fsys.Remove(path)
		if err == nil || os.IsNotExist(err) {
			return nil
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		opts.Logger.Warn("stale store removal failed, retrying", "path", path, "wait", wait, "error", err)
	}

	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(opts.RemoveBackoff), opts.RemoveAttempts-1)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return fmt.Errorf("%w %s: %w", ErrStaleStore, path, err)
	}
	return nil
}

// Path returns the store file path.
func (w *Writer) Path() string { return w.path }

// Capacity returns the number of slots.
func (w *Writer) Capacity() uint64 { return w.capacity }

// Found returns the number of appended entries.
func (w *Writer) Found() uint64 { return w.found }

// Append writes values at the current fill offset.
func (w *Writer) Append(values []uint64) error {
	if w.closed {
		return ErrClosed
	}
	if len(values) == 0 {
		return nil
	}
	if uint64(len(values)) > w.capacity-w.found {
		return ErrFull
	}

	w.buf = w.buf[:0]
	for _, v := range values {
		w.buf = binary.NativeEndian.AppendUint64(w.buf, v)
	}
	if _, err := w.f.WriteAt(w.buf, int64(w.found*SlotSize)); err != nil {
		return fmt.Errorf("store: write slot %d: %w", w.found, err)
	}
	w.found += uint64(len(values))
	return nil
}

// Flush makes appended entries durable.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	return w.f.Sync()
}

// Close flushes and releases the file. It is idempotent; the file itself
// stays on disk.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.buf = nil
	syncErr := w.f.Sync()
	closeErr := w.f.Close()
	if err := errors.Join(syncErr, closeErr); err != nil {
		return fmt.Errorf("store: close %s: %w", w.path, err)
	}
	w.logger.Debug("store closed", "path", w.path, "found", w.found)
	return nil
}
