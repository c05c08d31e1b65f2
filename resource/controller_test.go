package resource

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(context.Background(), 50))
	require.NoError(t, c.TryAcquireMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// TryAcquire 20 (should fail)
	assert.ErrorIs(t, c.TryAcquireMemory(20), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should block/timeout)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireMemory(ctx, 20), context.DeadlineExceeded)

	// Larger than the whole budget never fits.
	assert.ErrorIs(t, c.AcquireMemory(context.Background(), 101), ErrMemoryLimitExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(context.Background(), 20))
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(context.Background(), 1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())
}

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})

	require.NoError(t, c.AcquireWorker(context.Background()))
	require.NoError(t, c.AcquireWorker(context.Background()))
	assert.False(t, c.TryAcquireWorker())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireWorker(ctx))

	c.ReleaseWorker()
	assert.True(t, c.TryAcquireWorker())
}

func TestController_NilChecks(t *testing.T) {
	var c *Controller
	assert.NoError(t, c.AcquireMemory(context.Background(), 10))
	assert.NoError(t, c.TryAcquireMemory(10))
	c.ReleaseMemory(10)
	assert.NoError(t, c.AcquireWorker(context.Background()))
	assert.True(t, c.TryAcquireWorker())
	c.ReleaseWorker()
	assert.NoError(t, c.AcquireIO(context.Background(), 1<<30))
	assert.Zero(t, c.MemoryUsage())
}

func TestController_IOSplitsLargeRequests(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// Twice the burst would be rejected by a single WaitN.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, c.AcquireIO(ctx, 2<<20))
	assert.GreaterOrEqual(t, time.Since(start), 500*time.Millisecond)
}

func TestRateLimitedWriter(t *testing.T) {
	var buf bytes.Buffer
	c := NewController(Config{IOLimitBytesPerSec: 1000})

	w := NewRateLimitedWriter(context.Background(), &buf, c)
	n, err := w.Write([]byte("2\n3\n5"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "2\n3\n5", buf.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewRateLimitedWriter(ctx, &buf, c).Write(make([]byte, 5000))
	assert.Error(t, err)

	plain := NewRateLimitedWriter(context.Background(), &buf, nil)
	_, err = plain.Write([]byte("\n7"))
	require.NoError(t, err)
	assert.Equal(t, "2\n3\n5\n7", buf.String())
}
