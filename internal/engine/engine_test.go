package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/primegen/internal/fs"
	"github.com/hupe1980/primegen/internal/progress"
	"github.com/hupe1980/primegen/internal/store"
	"github.com/hupe1980/primegen/resource"
)

type events struct {
	mu       sync.Mutex
	found    []uint64
	statuses []string
}

func (e *events) Progress(found, _ uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.found = append(e.found, found)
}

func (e *events) Status(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statuses = append(e.statuses, msg)
}

type countingMetrics struct {
	segments int
	growths  int
}

func (m *countingMetrics) OnSegment(time.Duration, uint64, int) { m.segments++ }
func (m *countingMetrics) OnBoundGrowth(uint64, uint64)         { m.growths++ }

func testConfig(t *testing.T, count uint64) Config {
	t.Helper()
	return Config{
		Count:       count,
		SegmentSize: 1 << 12,
		StorePath:   filepath.Join(t.TempDir(), "primes.dat"),
	}
}

func readStore(t *testing.T, path string, found uint64) []uint64 {
	t.Helper()
	r, err := store.Open(path)
	require.NoError(t, err)
	defer r.Close()
	return append([]uint64(nil), r.Slice(0, found, found)...)
}

func naivePrimes(n int) []uint64 {
	var out []uint64
	for v := uint64(2); len(out) < n; v++ {
		prime := true
		for _, p := range out {
			if p*p > v {
				break
			}
			if v%p == 0 {
				prime = false
				break
			}
		}
		if prime {
			out = append(out, v)
		}
	}
	return out
}

func TestRun_One(t *testing.T) {
	cfg := testConfig(t, 1)
	ev := &events{}
	e := New(cfg, WithEmitter(ev))

	stats, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, e.State())
	assert.Equal(t, Stats{Found: 1, Target: 1, MaxPrime: 2, Sum: 2}, stats)
	assert.InDelta(t, 2.0, stats.Average(), 1e-12)
	assert.Equal(t, []uint64{2}, readStore(t, cfg.StorePath, stats.Found))
	assert.Equal(t, uint64(1), ev.found[len(ev.found)-1])
}

func TestRun_Ten(t *testing.T) {
	cfg := testConfig(t, 10)
	stats, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(10), stats.Found)
	assert.Equal(t, uint64(129), stats.Sum)
	assert.Equal(t, uint64(29), stats.MaxPrime)
	assert.InDelta(t, 12.9, stats.Average(), 1e-12)
	assert.Equal(t, []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}, readStore(t, cfg.StorePath, stats.Found))
}

func TestRun_MatchesNaive(t *testing.T) {
	want := naivePrimes(5000)
	for _, segSize := range []uint64{1, 7, 64, 1000, 1 << 16} {
		cfg := testConfig(t, 5000)
		cfg.SegmentSize = segSize

		stats, err := New(cfg).Run(context.Background())
		require.NoError(t, err, "segment size %d", segSize)
		assert.Equal(t, want, readStore(t, cfg.StorePath, stats.Found), "segment size %d", segSize)
	}
}

func TestRun_LargeVerified(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	for _, n := range []uint64{99_991, 100_000, 250_000} {
		cfg := testConfig(t, n)
		cfg.SegmentSize = 1 << 15

		stats, err := New(cfg).Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, n, stats.Found)

		values := readStore(t, cfg.StorePath, stats.Found)
		require.NoError(t, store.Verify(context.Background(), values))
		assert.Equal(t, stats.MaxPrime, values[len(values)-1])
		if n == 100_000 {
			assert.Equal(t, uint64(1_299_709), stats.MaxPrime)
		}
	}
}

func TestRun_UndersizedBoundSelfCorrects(t *testing.T) {
	cfg := testConfig(t, 1000)
	cfg.InitialBound = 3
	cfg.SegmentSize = 100
	m := &countingMetrics{}

	stats, err := New(cfg, WithMetricsObserver(m)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1000), stats.Found)
	assert.Equal(t, uint64(7919), stats.MaxPrime)
	assert.Positive(t, m.growths)
	assert.Positive(t, m.segments)
	assert.Equal(t, naivePrimes(1000), readStore(t, cfg.StorePath, stats.Found))
}

func TestRun_BoundGrowthLimit(t *testing.T) {
	cfg := testConfig(t, 100_000)
	cfg.InitialBound = 3
	cfg.MaxBoundGrowth = 1
	e := New(cfg)

	stats, err := e.Run(context.Background())
	require.ErrorIs(t, err, ErrBoundGrowthLimit)

	var rtErr *RuntimeError
	require.ErrorAs(t, err, &rtErr)
	assert.Equal(t, StateFailed, e.State())
	assert.Less(t, stats.Found, cfg.Count)

	// The prefix written before the failure stays valid.
	values := readStore(t, cfg.StorePath, stats.Found)
	assert.NoError(t, store.Verify(context.Background(), values))
}

func TestRun_Stop(t *testing.T) {
	cfg := testConfig(t, 1_000_000)
	cfg.SegmentSize = 1 << 10

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ev := &events{}
	em := progress.Funcs{
		OnProgress: func(found, target uint64) {
			ev.Progress(found, target)
			if found > 5000 {
				cancel()
			}
		},
	}
	e := New(cfg, WithEmitter(em))

	stats, err := e.Run(ctx)
	require.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, StateStopped, e.State())
	assert.Less(t, stats.Found, cfg.Count)
	assert.Greater(t, stats.Found, uint64(5000))

	// Last observation matches the terminal stats.
	assert.Equal(t, stats.Found, ev.found[len(ev.found)-1])

	values := readStore(t, cfg.StorePath, stats.Found)
	require.Len(t, values, int(stats.Found))
	assert.NoError(t, store.Verify(context.Background(), values))
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	cfg := testConfig(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(cfg)
	_, err := e.Run(ctx)
	require.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, StateStopped, e.State())

	_, statErr := os.Stat(cfg.StorePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_InsufficientSpace(t *testing.T) {
	cfg := testConfig(t, 1_000_000)
	ffs := fs.NewFaultyFS(nil)
	ffs.SetFreeSpace(1 << 20)
	ev := &events{}
	e := New(cfg, WithFileSystem(ffs), WithEmitter(ev))

	_, err := e.Run(context.Background())

	var resErr *ResourceError
	require.ErrorAs(t, err, &resErr)
	var spaceErr *store.InsufficientSpaceError
	require.ErrorAs(t, err, &spaceErr)
	assert.Equal(t, store.RequiredBytes(cfg.Count), spaceErr.Required)
	assert.Contains(t, err.Error(), "required ≈")
	assert.Contains(t, err.Error(), "free ≈")
	assert.Equal(t, StateFailed, e.State())

	assert.Empty(t, ffs.Opened())
	_, statErr := os.Stat(cfg.StorePath)
	assert.True(t, os.IsNotExist(statErr), "no store file may be created")

	// Even a failed run delivers a final observation.
	assert.Equal(t, []uint64{0}, ev.found)
}

func TestRun_Validation(t *testing.T) {
	t.Run("ZeroCount", func(t *testing.T) {
		e := New(testConfig(t, 0))
		_, err := e.Run(context.Background())

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "count", vErr.Field)
		assert.ErrorIs(t, err, ErrInvalidCount)
		assert.Equal(t, StateFailed, e.State())
	})

	t.Run("ZeroSegment", func(t *testing.T) {
		cfg := testConfig(t, 10)
		cfg.SegmentSize = 0
		_, err := New(cfg).Run(context.Background())

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "segment size", vErr.Field)
	})

	t.Run("NoPath", func(t *testing.T) {
		cfg := testConfig(t, 10)
		cfg.StorePath = ""
		_, err := New(cfg).Run(context.Background())

		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestRun_WriteFault(t *testing.T) {
	cfg := testConfig(t, 10_000)
	cfg.SegmentSize = 256
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("primes.dat", fs.Fault{FailAfterBytes: 8 * 500})
	e := New(cfg, WithFileSystem(ffs))

	stats, err := e.Run(context.Background())
	require.ErrorIs(t, err, fs.ErrInjected)

	var rtErr *RuntimeError
	require.ErrorAs(t, err, &rtErr)
	assert.Equal(t, "write", rtErr.Phase)
	assert.Equal(t, StateFailed, e.State())
	assert.LessOrEqual(t, stats.Found, uint64(500))

	// Partial results are left on disk.
	values := readStore(t, cfg.StorePath, stats.Found)
	assert.NoError(t, store.Verify(context.Background(), values))
}

func TestRun_MemoryLimit(t *testing.T) {
	cfg := testConfig(t, 1000)
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64})

	e := New(cfg, WithResourceController(rc))
	_, err := e.Run(context.Background())

	var resErr *ResourceError
	require.ErrorAs(t, err, &resErr)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Zero(t, rc.MemoryUsage())
}

func TestRun_ReleasesMemory(t *testing.T) {
	cfg := testConfig(t, 1000)
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 30})

	_, err := New(cfg, WithResourceController(rc)).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rc.MemoryUsage())
}

func TestRun_ProgressMonotonic(t *testing.T) {
	cfg := testConfig(t, 50_000)
	cfg.SegmentSize = 512
	ev := &events{}

	stats, err := New(cfg, WithEmitter(ev)).Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, ev.found)
	assert.Equal(t, uint64(1), ev.found[0])
	for i := 1; i < len(ev.found); i++ {
		assert.GreaterOrEqual(t, ev.found[i], ev.found[i-1])
	}
	assert.Equal(t, stats.Found, ev.found[len(ev.found)-1])
	assert.Contains(t, ev.statuses, "building base sieve")
	assert.Contains(t, ev.statuses, "segmented sieve running")
}

func TestRun_Once(t *testing.T) {
	e := New(testConfig(t, 5))
	_, err := e.Run(context.Background())
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	var rtErr *RuntimeError
	assert.True(t, errors.As(err, &rtErr))
	assert.Equal(t, StateDone, e.State())
}

func TestState(t *testing.T) {
	assert.False(t, StateSieving.Terminal())
	assert.True(t, StateStopped.Terminal())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.Zero(t, Stats{}.Average())
}
