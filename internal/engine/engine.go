package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/primegen/internal/bound"
	"github.com/hupe1980/primegen/internal/fs"
	"github.com/hupe1980/primegen/internal/progress"
	"github.com/hupe1980/primegen/internal/sieve"
	"github.com/hupe1980/primegen/internal/store"
	"github.com/hupe1980/primegen/resource"
)

// DefaultMaxBoundGrowth caps how often a run may grow its upper bound.
const DefaultMaxBoundGrowth = 64

// Config describes one generation run.
type Config struct {
	// Count is the number of primes to generate.
	Count uint64

	// SegmentSize is the number of odd values per sieve window.
	SegmentSize uint64

	// StorePath is the store file to create. Its directory is preflighted.
	StorePath string

	// UpdateInterval is the minimum spacing of progress events.
	UpdateInterval time.Duration

	// MaxBoundGrowth caps bound growths. 0 selects DefaultMaxBoundGrowth.
	MaxBoundGrowth int

	// InitialBound overrides the estimated upper bound when non-zero.
	InitialBound uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithFileSystem sets the file system holding the store.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(e *Engine) {
		if fsys != nil {
			e.fs = fsys
		}
	}
}

// WithEmitter sets the receiver of progress and status events.
func WithEmitter(em progress.Emitter) Option {
	return func(e *Engine) {
		if em != nil {
			e.emitter = em
		}
	}
}

// WithMetricsObserver sets the metrics observer for the engine.
func WithMetricsObserver(observer MetricsObserver) Option {
	return func(e *Engine) {
		if observer != nil {
			e.metrics = observer
		}
	}
}

// WithResourceController accounts sieve buffers against rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(e *Engine) {
		e.rc = rc
	}
}

// Engine executes a single generation run. Run may be called once; the
// accessors are safe for concurrent use while it executes.
type Engine struct {
	cfg     Config
	fs      fs.FileSystem
	logger  *slog.Logger
	emitter progress.Emitter
	metrics MetricsObserver
	rc      *resource.Controller

	state   atomic.Int32
	started atomic.Bool

	mu    sync.RWMutex
	stats Stats

	// Owned by the run goroutine.
	reporter *progress.Reporter
	writer   *store.Writer
	seg      *sieve.Segmenter
	limit    uint64
	reserved int64
	phase    string
}

// New creates an Engine for cfg. Validation is deferred to Run so that an
// invalid configuration still ends in the Failed state.
func New(cfg Config, opts ...Option) *Engine {
	if cfg.MaxBoundGrowth <= 0 {
		cfg.MaxBoundGrowth = DefaultMaxBoundGrowth
	}
	e := &Engine{
		cfg:     cfg,
		fs:      fs.Default,
		logger:  slog.New(slog.DiscardHandler),
		emitter: progress.Discard,
		metrics: NoopMetricsObserver{},
		stats:   Stats{Target: cfg.Count},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("store", cfg.StorePath, "count", cfg.Count)
	return e
}

// State returns the current state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Snapshot returns a consistent copy of the running statistics.
func (e *Engine) Snapshot() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// StorePath returns the store file path.
func (e *Engine) StorePath() string {
	return e.cfg.StorePath
}

// Run executes the generation. It returns the final statistics together with
// nil (Done), an error wrapping ErrInterrupted (Stopped), or any other error
// (Failed). Cancelling ctx stops the run at the next window boundary.
func (e *Engine) Run(ctx context.Context) (stats Stats, err error) {
	if !e.started.CompareAndSwap(false, true) {
		return e.Snapshot(), NewRuntimeError("start", errors.New("engine already ran"))
	}
	e.reporter = progress.New(e.emitter, e.cfg.UpdateInterval)
	e.phase = "init"

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic recovered", "phase", e.phase, "panic", r, "stack", string(debug.Stack()))
			err = NewRuntimeError(e.phase, fmt.Errorf("panic: %v", r))
		}
		err = e.finish(err)
		stats = e.Snapshot()
	}()

	if err := e.init(ctx); err != nil {
		return Stats{}, err
	}
	if err := e.seed(); err != nil {
		return Stats{}, err
	}
	if e.Snapshot().Found == e.cfg.Count {
		return Stats{}, nil
	}
	return Stats{}, e.sieve(ctx)
}

// finish releases the store and memory, emits the final observation and
// records the terminal state.
func (e *Engine) finish(err error) error {
	if e.writer != nil {
		if cerr := e.writer.Close(); cerr != nil {
			e.logger.Error("store close failed", "error", cerr)
			if err == nil {
				err = &ResourceError{Op: "close store", Path: e.cfg.StorePath, cause: cerr}
			}
		}
	}
	if e.reserved > 0 {
		e.rc.ReleaseMemory(e.reserved)
		e.reserved = 0
	}

	s := e.Snapshot()
	e.reporter.Final(s.Found, s.Target)

	switch {
	case err == nil:
		e.state.Store(int32(StateDone))
		e.logger.Info("generation done", "found", s.Found, "max_prime", s.MaxPrime)
	case errors.Is(err, ErrInterrupted):
		e.state.Store(int32(StateStopped))
		e.logger.Info("generation stopped", "found", s.Found)
	default:
		e.state.Store(int32(StateFailed))
		e.logger.Error("generation failed", "phase", e.phase, "found", s.Found, "error", err)
	}
	return err
}

func (e *Engine) init(ctx context.Context) error {
	cfg := e.cfg
	if cfg.Count == 0 {
		return NewValidationError("count", cfg.Count, ErrInvalidCount)
	}
	if cfg.SegmentSize == 0 {
		return NewValidationError("segment size", cfg.SegmentSize, nil)
	}
	if cfg.StorePath == "" {
		return NewValidationError("store path", `""`, nil)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
	}

	e.phase = "preflight"
	dir := filepath.Dir(cfg.StorePath)
	e.reporter.Status("checking free disk space")
	space, err := store.Preflight(e.fs, dir, cfg.Count)
	if err != nil {
		return &ResourceError{Op: "preflight", Path: dir, cause: err}
	}
	if space.Known {
		e.logger.Info("disk space ok",
			"required", humanize.IBytes(space.Required),
			"free", humanize.IBytes(space.Free))
	} else {
		e.logger.Warn("free disk space unknown, proceeding",
			"required", humanize.IBytes(space.Required),
			"error", space.ProbeErr)
	}

	e.phase = "bound"
	e.limit = cfg.InitialBound
	if e.limit == 0 {
		e.limit = bound.NthPrime(cfg.Count)
	}
	e.reporter.Status(fmt.Sprintf("upper bound %d", e.limit))
	e.logger.Info("upper bound computed", "bound", e.limit)

	e.phase = "base sieve"
	e.reporter.Status("building base sieve")
	e.seg = sieve.NewSegmenter(sieve.BaseOddPrimes(sieve.BaseLimit(e.limit)), cfg.SegmentSize)
	return e.reserve(e.seg.Bytes())
}

func (e *Engine) seed() error {
	e.phase = "seed"
	w, err := store.Create(e.fs, e.cfg.StorePath, e.cfg.Count, func(o *store.Options) {
		o.Logger = e.logger
	})
	if err != nil {
		return &ResourceError{Op: "create store", Path: e.cfg.StorePath, cause: err}
	}
	e.writer = w

	if err := w.Append([]uint64{2}); err != nil {
		return NewRuntimeError("seed", err)
	}
	e.record(2, 1, 2)
	e.state.Store(int32(StateSeeded))
	e.reporter.First(1, e.cfg.Count)
	return nil
}

func (e *Engine) sieve(ctx context.Context) error {
	cfg := e.cfg
	seg := e.seg
	limit := e.limit

	out := make([]uint64, 0, max(cfg.SegmentSize/4, 64))
	if err := e.reserve(int64(cap(out)) * 8); err != nil {
		return err
	}

	e.phase = "segmented sieve"
	e.state.Store(int32(StateSieving))
	e.reporter.Status("segmented sieve running")
	e.logger.Debug("sieving", "base_primes", seg.BaseCount(), "segment_size", cfg.SegmentSize)

	growths := 0
	lo := uint64(3)
	for {
		s := e.Snapshot()
		if s.Found >= cfg.Count {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
		}

		if lo > limit {
			growths++
			if growths > cfg.MaxBoundGrowth {
				return NewRuntimeError(e.phase, fmt.Errorf("%w after %d growths (bound %d, found %d)",
					ErrBoundGrowthLimit, cfg.MaxBoundGrowth, limit, s.Found))
			}
			grown := bound.Grow(limit)
			if err := e.extendBase(seg, grown); err != nil {
				return err
			}
			e.metrics.OnBoundGrowth(limit, grown)
			e.logger.Warn("upper bound exhausted, growing", "from", limit, "to", grown, "found", s.Found)
			e.reporter.Status(fmt.Sprintf("upper bound grown to %d", grown))
			limit = grown
			continue
		}

		start := time.Now()
		hi := seg.WindowEnd(lo, limit)
		var next uint64
		out, next = seg.Sieve(lo, hi, out[:0])
		if remaining := cfg.Count - s.Found; uint64(len(out)) > remaining {
			out = out[:remaining]
		}

		if len(out) > 0 {
			if err := e.writer.Append(out); err != nil {
				return NewRuntimeError("write", err)
			}
			var sum uint64
			for _, p := range out {
				sum += p
			}
			e.record(out[len(out)-1], uint64(len(out)), sum)
		}
		e.metrics.OnSegment(time.Since(start), (next-lo)/2, len(out))

		s = e.Snapshot()
		e.reporter.Update(s.Found, s.Target)
		lo = next
	}
}

// extendBase makes the base primes cover √newBound.
func (e *Engine) extendBase(seg *sieve.Segmenter, newBound uint64) error {
	limit := sieve.BaseLimit(newBound)
	if limit <= seg.MaxBase() {
		return nil
	}
	before := seg.Bytes()
	seg.Extend(sieve.BaseOddPrimes(limit))
	return e.reserve(seg.Bytes() - before)
}

func (e *Engine) reserve(bytes int64) error {
	if bytes <= 0 {
		return nil
	}
	if err := e.rc.TryAcquireMemory(bytes); err != nil {
		return &ResourceError{
			Op:    fmt.Sprintf("reserve %s of sieve memory", humanize.IBytes(uint64(bytes))),
			cause: err,
		}
	}
	e.reserved += bytes
	return nil
}

func (e *Engine) record(last, n, sum uint64) {
	e.mu.Lock()
	e.stats.Found += n
	e.stats.MaxPrime = last
	e.stats.Sum += sum
	e.mu.Unlock()
}
