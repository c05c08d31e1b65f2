package primegen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/primegen/internal/engine"
	"github.com/hupe1980/primegen/internal/export"
	"github.com/hupe1980/primegen/internal/store"
	"github.com/hupe1980/primegen/ledger"
	"github.com/hupe1980/primegen/resource"
	"github.com/hupe1980/primegen/sink"
)

// errStopRequested is the cancellation cause of Stop and StopExport.
var errStopRequested = errors.New("stop requested")

// Generator runs generations and exports on background workers. At most one
// generation and one export run at a time; a new generation always writes a
// fresh, uniquely named store.
//
// All methods are safe for concurrent use.
type Generator struct {
	opts options
	rc   *resource.Controller

	mu     sync.Mutex
	closed bool
	run    *run
	export *exportRun
}

type run struct {
	id      string
	req     Request
	eng     *engine.Engine
	started time.Time
	cancel  context.CancelCauseFunc
	done    chan struct{}

	// Set before done is closed.
	res Result
	err error
}

func (r *run) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

type exportRun struct {
	cancel context.CancelCauseFunc
	done   chan struct{}

	res ExportResult
	err error
}

func (x *exportRun) finished() bool {
	select {
	case <-x.done:
		return true
	default:
		return false
	}
}

// New creates a Generator.
func New(optFns ...Option) *Generator {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	rc := opts.rc
	if rc == nil {
		rc = resource.NewController(resource.Config{MaxWorkers: 2})
	}
	return &Generator{opts: opts, rc: rc}
}

// Start validates req and launches a generation on a background worker. It
// returns the run id. A ValidationError is returned synchronously and
// nothing is allocated; every later failure is delivered through Wait and
// the Observer.
//
// Cancelling ctx has the same effect as Stop.
func (g *Generator) Start(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return "", ErrClosed
	}
	if g.run != nil && !g.run.finished() {
		return "", ErrBusy
	}
	if !g.rc.TryAcquireWorker() {
		return "", ErrBusy
	}

	id := ledger.NewRunID()
	path := store.UniquePath(g.opts.fs, req.TmpDir)
	log := g.opts.logger.WithRunID(id)

	eng := engine.New(engine.Config{
		Count:          req.Count,
		SegmentSize:    req.SegmentSize,
		StorePath:      path,
		UpdateInterval: req.UpdateInterval,
		MaxBoundGrowth: g.opts.maxBoundGrowth,
	},
		engine.WithLogger(log.Logger),
		engine.WithFileSystem(g.opts.fs),
		engine.WithEmitter(emitter{obs: g.opts.observer}),
		engine.WithMetricsObserver(engineMetrics{c: g.opts.metricsCollector}),
		engine.WithResourceController(g.rc),
	)

	runCtx, cancel := context.WithCancelCause(ctx)
	r := &run{
		id:      id,
		req:     req,
		eng:     eng,
		started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	g.run = r

	log = log.WithStore(path)
	log.LogRunStart(ctx, req)
	goSafe(log, func() { g.generate(runCtx, r, log) })
	return id, nil
}

func (g *Generator) generate(ctx context.Context, r *run, log *Logger) {
	defer close(r.done)
	defer g.rc.ReleaseWorker()
	defer r.cancel(nil)

	stats, err := r.eng.Run(ctx)
	res := Result{
		RunID:     r.id,
		StorePath: r.eng.StorePath(),
		State:     r.eng.State(),
		Found:     stats.Found,
		MaxPrime:  stats.MaxPrime,
		Sum:       stats.Sum,
		Average:   stats.Average(),
		Duration:  time.Since(r.started),
	}
	r.res, r.err = res, err

	g.opts.metricsCollector.RecordRun(res.State, res.Found, res.Duration, err)
	g.record(ctx, r, log)
	log.LogRun(ctx, res, err)

	if err != nil {
		g.opts.observer.OnFailure(res, err)
		return
	}
	g.opts.observer.OnSuccess(res)
}

func (g *Generator) record(ctx context.Context, r *run, log *Logger) {
	rec := ledger.Record{
		RunID:     r.id,
		StorePath: r.res.StorePath,
		State:     r.res.State.String(),
		Count:     r.req.Count,
		Found:     r.res.Found,
		MaxPrime:  r.res.MaxPrime,
		Sum:       r.res.Sum,
		Average:   r.res.Average,
		StartedAt: r.started.UTC(),
		Duration:  r.res.Duration,
	}
	if r.err != nil {
		rec.Error = r.err.Error()
	}
	if err := g.opts.ledger.Append(context.WithoutCancel(ctx), rec); err != nil {
		log.WarnContext(ctx, "ledger append failed", "error", err)
	}
}

// Stop asks the active generation to stop at the next window boundary. The
// run then ends with an error wrapping ErrInterrupted. Stop is a no-op when
// no generation is active.
func (g *Generator) Stop() {
	g.mu.Lock()
	r := g.run
	g.mu.Unlock()

	if r != nil {
		r.cancel(errStopRequested)
	}
}

// Wait blocks until the last started generation finished or ctx is done.
func (g *Generator) Wait(ctx context.Context) (Result, error) {
	g.mu.Lock()
	r := g.run
	g.mu.Unlock()

	if r == nil {
		return Result{}, ErrNoRun
	}
	select {
	case <-r.done:
		return r.res, r.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Snapshot returns the running statistics of the last started generation.
func (g *Generator) Snapshot() Snapshot {
	g.mu.Lock()
	r := g.run
	g.mu.Unlock()

	if r == nil {
		return Snapshot{State: StateInit}
	}
	s := r.eng.Snapshot()
	return Snapshot{
		RunID:     r.id,
		StorePath: r.eng.StorePath(),
		State:     r.eng.State(),
		Found:     s.Found,
		Target:    s.Target,
		MaxPrime:  s.MaxPrime,
		Sum:       s.Sum,
		Average:   s.Average(),
	}
}

// StorePath returns the store of the last started generation, or "".
func (g *Generator) StorePath() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.run == nil {
		return ""
	}
	return g.run.eng.StorePath()
}

// Export streams the first count entries of the store at storePath to a
// local file on a background worker. The output extension selects the
// compression (see sink.CompressionFor). Use WaitExport for the outcome.
//
// Export is rejected with ErrBusy while another export runs or while the
// active generation still writes storePath.
func (g *Generator) Export(ctx context.Context, storePath string, count uint64, outputPath string) error {
	return g.startExport(ctx, storePath, count, func() (sink.Sink, error) {
		out, err := sink.Create(g.opts.fs, outputPath)
		if err != nil {
			return nil, engine.NewResourceError("create output", outputPath, err)
		}
		return out, nil
	})
}

// ExportTo is like Export but writes to out, for example a sink/s3 or
// sink/minio upload. The Generator closes or aborts out.
func (g *Generator) ExportTo(ctx context.Context, storePath string, count uint64, out sink.Sink) error {
	if out == nil {
		return engine.NewValidationError("sink", "<nil>", nil)
	}
	return g.startExport(ctx, storePath, count, func() (sink.Sink, error) {
		return out, nil
	})
}

func (g *Generator) startExport(ctx context.Context, storePath string, count uint64, open func() (sink.Sink, error)) error {
	if storePath == "" {
		return engine.NewValidationError("store path", `""`, nil)
	}
	storePath = filepath.Clean(storePath)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrClosed
	}
	if g.export != nil && !g.export.finished() {
		return ErrBusy
	}
	if g.run != nil && !g.run.finished() && filepath.Clean(g.run.eng.StorePath()) == storePath {
		return ErrBusy
	}
	if !g.rc.TryAcquireWorker() {
		return ErrBusy
	}

	exportCtx, cancel := context.WithCancelCause(ctx)
	x := &exportRun{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	g.export = x

	log := g.opts.logger.WithStore(storePath)
	goSafe(log, func() {
		defer close(x.done)
		defer g.rc.ReleaseWorker()
		defer x.cancel(nil)

		start := time.Now()
		res, err := g.runExport(exportCtx, storePath, count, open, log)
		res.Duration = time.Since(start)
		x.res, x.err = res, err

		g.opts.metricsCollector.RecordExport(res.Written, res.Duration, err)
		log.LogExport(exportCtx, res, err)
		if err != nil {
			g.opts.observer.OnExportFailure(res, err)
			return
		}
		g.opts.observer.OnExportSuccess(res)
	})
	return nil
}

func (g *Generator) runExport(ctx context.Context, storePath string, count uint64, open func() (sink.Sink, error), log *Logger) (res ExportResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = engine.NewRuntimeError("export", fmt.Errorf("panic: %v", r))
		}
	}()

	r, err := store.Open(storePath)
	if err != nil {
		return res, engine.NewResourceError("open store", storePath, err)
	}
	defer r.Close()

	if err := r.Sequential(); err != nil {
		log.DebugContext(ctx, "madvise failed", "error", err)
	}

	out, err := open()
	if err != nil {
		return res, err
	}
	res.Location = out.Location()
	res.Total = r.Clamp(count)

	// The limiter must not fail the flush that follows a stop.
	var w io.Writer = resource.NewRateLimitedWriter(context.WithoutCancel(ctx), out, g.rc)
	written, err := export.Stream(ctx, r, count, w, func(o *export.Options) {
		if g.opts.exportBlockSize > 0 {
			o.BlockSize = g.opts.exportBlockSize
		}
		o.Progress = g.opts.observer.OnExportProgress
	})
	res.Written = written

	if err != nil {
		if aerr := out.Abort(); aerr != nil {
			log.WarnContext(ctx, "abort export output failed", "location", res.Location, "error", aerr)
		}
		if errors.Is(err, ErrExportInterrupted) {
			return res, err
		}
		return res, engine.NewRuntimeError("export", err)
	}
	if err := out.Close(); err != nil {
		return res, engine.NewRuntimeError("export", err)
	}
	return res, nil
}

// StopExport asks the active export to stop at the next block boundary.
// Entries already written stay in the output.
func (g *Generator) StopExport() {
	g.mu.Lock()
	x := g.export
	g.mu.Unlock()

	if x != nil {
		x.cancel(errStopRequested)
	}
}

// WaitExport blocks until the last started export finished or ctx is done.
func (g *Generator) WaitExport(ctx context.Context) (ExportResult, error) {
	g.mu.Lock()
	x := g.export
	g.mu.Unlock()

	if x == nil {
		return ExportResult{}, ErrNoRun
	}
	select {
	case <-x.done:
		return x.res, x.err
	case <-ctx.Done():
		return ExportResult{}, ctx.Err()
	}
}

// Close stops all workers and waits up to the stop wait (WithStopWait) for
// them to finish. Workers that outlive the wait are not killed;
// ErrShutdownTimeout is returned instead. Close is idempotent.
func (g *Generator) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	r, x := g.run, g.export
	g.mu.Unlock()

	var pending []<-chan struct{}
	if r != nil {
		r.cancel(ErrClosed)
		pending = append(pending, r.done)
	}
	if x != nil {
		x.cancel(ErrClosed)
		pending = append(pending, x.done)
	}

	timer := time.NewTimer(g.opts.stopWait)
	defer timer.Stop()

	for _, done := range pending {
		select {
		case <-done:
		case <-timer.C:
			g.opts.logger.Warn("shutdown wait elapsed", "stop_wait", g.opts.stopWait)
			return ErrShutdownTimeout
		}
	}
	return nil
}
