package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/primegen/codec"
	"github.com/hupe1980/primegen/internal/fs"
)

func sampleRecord(state string) Record {
	return Record{
		RunID:     NewRunID(),
		StorePath: "/tmp/primes_1_2.dat",
		State:     state,
		Count:     10,
		Found:     10,
		MaxPrime:  29,
		Sum:       129,
		Average:   12.9,
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	}
}

func TestFile_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	l, err := OpenFile(nil, path, nil)
	require.NoError(t, err)

	done := sampleRecord("done")
	stopped := sampleRecord("stopped")
	stopped.Found = 4
	stopped.Error = "generation interrupted by caller"

	require.NoError(t, l.Append(context.Background(), done))
	require.NoError(t, l.Append(context.Background(), stopped))
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Append(context.Background(), done), ErrClosed)

	recs, err := ReadFile(path, codec.JSON{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, done, recs[0])
	assert.Equal(t, stopped, recs[1])
}

func TestFile_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	for range 2 {
		l, err := OpenFile(fs.Default, path, codec.JSON{})
		require.NoError(t, err)
		require.NoError(t, l.Append(context.Background(), sampleRecord("done")))
		require.NoError(t, l.Close())
	}

	recs, err := ReadFile(path, nil)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.NotEqual(t, recs[0].RunID, recs[1].RunID)
}

func TestReadFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"run_id\":\"a\"}\n\nnot json\n"), 0o644))

	recs, err := ReadFile(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Len(t, recs, 1)
}

func TestNoop(t *testing.T) {
	var l Ledger = Noop{}
	assert.NoError(t, l.Append(context.Background(), Record{}))
	assert.NoError(t, l.Close())
}
