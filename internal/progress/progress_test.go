package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	mu       sync.Mutex
	found    []uint64
	at       []time.Time
	statuses []string
}

func (r *recorder) Progress(found, _ uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.found = append(r.found, found)
	r.at = append(r.at, time.Now())
}

func (r *recorder) Status(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, msg)
}

func TestReporter_FirstAndFinalBypassGate(t *testing.T) {
	rec := &recorder{}
	r := New(rec, time.Hour)

	r.First(1, 100)
	for i := uint64(2); i < 100; i++ {
		r.Update(i, 100)
	}
	r.Final(100, 100)

	assert.Equal(t, []uint64{1, 100}, rec.found)
	assert.Equal(t, 2, r.Emitted())
}

func TestReporter_Interval(t *testing.T) {
	rec := &recorder{}
	interval := 20 * time.Millisecond
	r := New(rec, interval)

	r.First(1, 1000)
	deadline := time.Now().Add(150 * time.Millisecond)
	for i := uint64(2); time.Now().Before(deadline); i++ {
		r.Update(i, 1000)
		time.Sleep(time.Millisecond)
	}
	r.Final(999, 1000)

	n := len(rec.found)
	assert.GreaterOrEqual(t, n, 3)
	assert.Less(t, n, 20)
	for i := 1; i < n-1; i++ {
		assert.GreaterOrEqual(t, rec.at[i].Sub(rec.at[i-1]), interval)
	}
	assert.Equal(t, uint64(999), rec.found[n-1])
}

func TestReporter_Unthrottled(t *testing.T) {
	rec := &recorder{}
	r := New(rec, 0)

	r.First(1, 5)
	for i := uint64(2); i <= 4; i++ {
		r.Update(i, 5)
	}
	r.Final(5, 5)

	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, rec.found)
}

func TestReporter_Monotonic(t *testing.T) {
	rec := &recorder{}
	r := New(rec, 0)

	r.First(10, 20)
	r.Update(5, 20)
	r.Final(8, 20)

	assert.Equal(t, []uint64{10, 10, 10}, rec.found)
}

func TestReporter_Status(t *testing.T) {
	rec := &recorder{}
	r := New(rec, time.Hour)

	r.Status("computing bound")
	r.Status("building base sieve")

	assert.Equal(t, []string{"computing bound", "building base sieve"}, rec.statuses)
	assert.Empty(t, rec.found)
}

func TestFuncs_NilSafe(t *testing.T) {
	r := New(nil, 0)
	r.First(1, 1)
	r.Status("ok")

	var got uint64
	Funcs{OnProgress: func(found, _ uint64) { got = found }}.Progress(7, 9)
	assert.Equal(t, uint64(7), got)
}
