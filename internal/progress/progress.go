package progress

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Emitter receives progress and status events.
// Implementations must not block for long; they run on the worker goroutine.
type Emitter interface {
	Progress(found, target uint64)
	Status(msg string)
}

// Funcs adapts plain functions to an Emitter. Nil fields are ignored.
type Funcs struct {
	OnProgress func(found, target uint64)
	OnStatus   func(msg string)
}

// Progress implements Emitter.
func (f Funcs) Progress(found, target uint64) {
	if f.OnProgress != nil {
		f.OnProgress(found, target)
	}
}

// Status implements Emitter.
func (f Funcs) Status(msg string) {
	if f.OnStatus != nil {
		f.OnStatus(msg)
	}
}

// Discard is an Emitter that drops every event.
var Discard Emitter = Funcs{}

// Reporter is a throttled progress emitter for a single run.
type Reporter struct {
	emit Emitter
	gate rate.Sometimes

	mu      sync.Mutex
	last    uint64
	emitted int
}

// New returns a Reporter that emits at most once per interval.
// A non-positive interval disables throttling.
func New(emit Emitter, interval time.Duration) *Reporter {
	if emit == nil {
		emit = Discard
	}
	r := &Reporter{emit: emit}
	if interval > 0 {
		r.gate.Interval = interval
	} else {
		r.gate.Every = 1
	}
	return r
}

// First emits the first observation of a run. It always passes the gate and
// starts the interval.
func (r *Reporter) First(found, target uint64) {
	sent := false
	r.gate.Do(func() {
		r.send(found, target)
		sent = true
	})
	if !sent {
		r.send(found, target)
	}
}

// Update emits found unless the previous emission is younger than the
// interval.
func (r *Reporter) Update(found, target uint64) {
	r.gate.Do(func() { r.send(found, target) })
}

// Final emits the terminal observation unconditionally.
func (r *Reporter) Final(found, target uint64) {
	r.send(found, target)
}

// Status forwards a phase notice.
func (r *Reporter) Status(msg string) {
	r.emit.Status(msg)
}

// Emitted returns the number of progress events delivered so far.
func (r *Reporter) Emitted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emitted
}

func (r *Reporter) send(found, target uint64) {
	r.mu.Lock()
	if found < r.last {
		found = r.last
	}
	r.last = found
	r.emitted++
	r.mu.Unlock()

	r.emit.Progress(found, target)
}
