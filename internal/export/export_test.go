package export

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/primegen/internal/fs"
	"github.com/hupe1980/primegen/internal/store"
)

func writeStore(t *testing.T, values []uint64, capacity uint64) *store.Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "primes.dat")
	w, err := store.Create(fs.Default, path, capacity)
	require.NoError(t, err)
	require.NoError(t, w.Append(values))
	require.NoError(t, w.Close())

	r, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestStream_RoundTrip(t *testing.T) {
	values := []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}
	r := writeStore(t, values, uint64(len(values)))

	var buf bytes.Buffer
	var calls [][2]uint64
	n, err := Stream(context.Background(), r, uint64(len(values)), &buf, func(o *Options) {
		o.BlockSize = 3
		o.Progress = func(written, total uint64) {
			calls = append(calls, [2]uint64{written, total})
		}
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), n)
	assert.Equal(t, "2\n3\n5\n7\n11\n13\n17\n19\n23\n29", buf.String())
	assert.Equal(t, [][2]uint64{{3, 10}, {6, 10}, {9, 10}, {10, 10}}, calls)

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, len(values))
	for i, line := range lines {
		v, err := strconv.ParseUint(line, 10, 64)
		require.NoError(t, err)
		assert.Equal(t, values[i], v)
	}
}

func TestStream_ClampsToStoreLength(t *testing.T) {
	r := writeStore(t, []uint64{2, 3, 5}, 3)

	var buf bytes.Buffer
	n, err := Stream(context.Background(), r, 1000, &buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
	assert.Equal(t, "2\n3\n5", buf.String())

	buf.Reset()
	n, err = Stream(context.Background(), r, 2, &buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	assert.Equal(t, "2\n3", buf.String())
}

func TestStream_Empty(t *testing.T) {
	r := writeStore(t, []uint64{2}, 1)

	var buf bytes.Buffer
	n, err := Stream(context.Background(), r, 0, &buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, buf.String())
}

func TestStream_Interrupted(t *testing.T) {
	values := []uint64{2, 3, 5, 7, 11, 13}
	r := writeStore(t, values, uint64(len(values)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf bytes.Buffer
	n, err := Stream(ctx, r, uint64(len(values)), &buf, func(o *Options) {
		o.BlockSize = 2
		o.Progress = func(written, _ uint64) {
			if written >= 4 {
				cancel()
			}
		}
	})
	require.ErrorIs(t, err, ErrInterrupted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(4), n)

	// Output produced before the interruption is kept.
	assert.Equal(t, "2\n3\n5\n7", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestStream_WriteError(t *testing.T) {
	r := writeStore(t, []uint64{2, 3, 5}, 3)

	_, err := Stream(context.Background(), r, 3, failingWriter{})
	assert.EqualError(t, err, "disk full")
}
