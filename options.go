package primegen

import (
	"time"

	"github.com/hupe1980/primegen/internal/engine"
	"github.com/hupe1980/primegen/internal/fs"
	"github.com/hupe1980/primegen/ledger"
	"github.com/hupe1980/primegen/resource"
)

// DefaultStopWait is the time Close waits for workers to finish.
const DefaultStopWait = time.Second

type options struct {
	logger           *Logger
	fs               fs.FileSystem
	observer         Observer
	metricsCollector MetricsCollector
	ledger           ledger.Ledger
	rc               *resource.Controller
	stopWait         time.Duration
	maxBoundGrowth   int
	exportBlockSize  uint64
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		fs:               fs.Default,
		observer:         ObserverFuncs{},
		metricsCollector: NoopMetricsCollector{},
		ledger:           ledger.Noop{},
		stopWait:         DefaultStopWait,
		maxBoundGrowth:   engine.DefaultMaxBoundGrowth,
	}
}

// Option configures a Generator.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithObserver sets the receiver of progress, status and terminal events.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(c MetricsCollector) Option {
	return func(o *options) {
		if c != nil {
			o.metricsCollector = c
		}
	}
}

// WithLedger records every terminal generation outcome in l.
func WithLedger(l ledger.Ledger) Option {
	return func(o *options) {
		if l != nil {
			o.ledger = l
		}
	}
}

// WithResourceController shares memory, worker and export IO budgets.
// Without one, each Generator gets a private controller with two worker
// slots and no limits.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithFileSystem replaces the file system used for stores and exports.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithDiskUsage overrides the free-space probe used by the preflight. Apply
// it after WithFileSystem.
func WithDiskUsage(probe func(dir string) (uint64, error)) Option {
	return func(o *options) {
		if probe != nil {
			o.fs = diskUsageFS{FileSystem: o.fs, probe: probe}
		}
	}
}

// WithStopWait bounds how long Close waits for workers. Default: 1s.
func WithStopWait(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.stopWait = d
		}
	}
}

// WithMaxBoundGrowth caps how often a run may grow an exhausted upper bound
// before failing. Default: 64.
func WithMaxBoundGrowth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBoundGrowth = n
		}
	}
}

// WithExportBlockSize sets the entries written between cancellation checks
// and export progress events. Default: 10,000,000.
func WithExportBlockSize(n uint64) Option {
	return func(o *options) {
		o.exportBlockSize = n
	}
}

type diskUsageFS struct {
	fs.FileSystem
	probe func(dir string) (uint64, error)
}

func (d diskUsageFS) FreeSpace(dir string) (uint64, error) {
	return d.probe(dir)
}

var _ fs.FileSystem = diskUsageFS{FileSystem: fs.LocalFS{}}
