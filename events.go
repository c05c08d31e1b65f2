package primegen

import (
	"time"

	"github.com/hupe1980/primegen/internal/engine"
)

// State is the lifecycle state of a generation.
type State = engine.State

const (
	StateInit    = engine.StateInit
	StateSeeded  = engine.StateSeeded
	StateSieving = engine.StateSieving
	StateDone    = engine.StateDone
	StateStopped = engine.StateStopped
	StateFailed  = engine.StateFailed
)

// Snapshot is a point-in-time view of a generation. Only the prefix
// [0, Found) of the store is defined.
type Snapshot struct {
	RunID     string
	StorePath string
	State     State
	Found     uint64
	Target    uint64
	MaxPrime  uint64
	Sum       uint64
	Average   float64
}

// Result is the outcome of a finished generation. On failure it still
// carries the statistics of the valid store prefix.
type Result struct {
	RunID     string
	StorePath string
	State     State
	Found     uint64
	MaxPrime  uint64
	Sum       uint64
	Average   float64
	Duration  time.Duration
}

// ExportResult is the outcome of a finished export.
type ExportResult struct {
	Location string
	Written  uint64
	Total    uint64
	Duration time.Duration
}

// Observer receives the events of generations and exports. Methods are
// called from the worker goroutine and must not block for long.
//
// A run delivers at least one progress event after seeding and one final
// progress event before exactly one of OnSuccess or OnFailure. Interrupted
// runs are reported through OnFailure with an error for which
// IsInterrupted returns true.
type Observer interface {
	OnProgress(found, target uint64)
	OnStatus(msg string)
	OnSuccess(res Result)
	OnFailure(res Result, err error)

	OnExportProgress(written, total uint64)
	OnExportSuccess(res ExportResult)
	OnExportFailure(res ExportResult, err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Progress       func(found, target uint64)
	Status         func(msg string)
	Success        func(res Result)
	Failure        func(res Result, err error)
	ExportProgress func(written, total uint64)
	ExportSuccess  func(res ExportResult)
	ExportFailure  func(res ExportResult, err error)
}

func (f ObserverFuncs) OnProgress(found, target uint64) {
	if f.Progress != nil {
		f.Progress(found, target)
	}
}

func (f ObserverFuncs) OnStatus(msg string) {
	if f.Status != nil {
		f.Status(msg)
	}
}

func (f ObserverFuncs) OnSuccess(res Result) {
	if f.Success != nil {
		f.Success(res)
	}
}

func (f ObserverFuncs) OnFailure(res Result, err error) {
	if f.Failure != nil {
		f.Failure(res, err)
	}
}

func (f ObserverFuncs) OnExportProgress(written, total uint64) {
	if f.ExportProgress != nil {
		f.ExportProgress(written, total)
	}
}

func (f ObserverFuncs) OnExportSuccess(res ExportResult) {
	if f.ExportSuccess != nil {
		f.ExportSuccess(res)
	}
}

func (f ObserverFuncs) OnExportFailure(res ExportResult, err error) {
	if f.ExportFailure != nil {
		f.ExportFailure(res, err)
	}
}

// emitter feeds engine events to an Observer.
type emitter struct {
	obs Observer
}

func (e emitter) Progress(found, target uint64) { e.obs.OnProgress(found, target) }
func (e emitter) Status(msg string)             { e.obs.OnStatus(msg) }
