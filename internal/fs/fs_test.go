package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, lfs.MkdirAll(dir, 0755))

	fpath := filepath.Join(dir, "test.dat")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	assert.Equal(t, fpath, f.Name())

	_, err = f.Write([]byte("hello"))
	assert.NoError(t, err)

	// Positional write past the current end extends the file.
	_, err = f.WriteAt([]byte("!"), 9)
	assert.NoError(t, err)

	assert.NoError(t, f.Sync())

	info, err := f.Stat()
	assert.NoError(t, err)
	assert.Equal(t, int64(10), info.Size())

	assert.NoError(t, f.Close())

	assert.NoError(t, lfs.Truncate(fpath, 3))
	info2, err := lfs.Stat(fpath)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), info2.Size())

	assert.NoError(t, lfs.Remove(fpath))
	_, err = lfs.Stat(fpath)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalFS_FreeSpace(t *testing.T) {
	free, err := LocalFS{}.FreeSpace(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, free, uint64(0))

	_, err = LocalFS{}.FreeSpace(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFaultyFS_FailAfterBytes(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("faulty.dat", Fault{FailAfterBytes: 5})

	fpath := filepath.Join(tmp, "faulty.dat")
	f, err := ffs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	n, err := f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.WriteAt([]byte("!"), 5)
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 0, n)

	assert.Equal(t, int64(5), ffs.GetWritten())
	assert.Equal(t, []string{fpath}, ffs.Opened())
	require.NoError(t, f.Close())
}

func TestFaultyFS_SyncAndClose(t *testing.T) {
	tmp := t.TempDir()
	boom := os.ErrDeadlineExceeded
	ffs := NewFaultyFS(nil)
	ffs.AddRule("syncfail.dat", Fault{FailAfterBytes: -1, FailOnSync: true, Err: boom})
	ffs.AddRule("closefail.dat", Fault{FailAfterBytes: -1, FailOnClose: true})

	f, err := ffs.OpenFile(filepath.Join(tmp, "syncfail.dat"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), boom)
	assert.NoError(t, f.Close())

	f, err = ffs.OpenFile(filepath.Join(tmp, "closefail.dat"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	assert.NoError(t, f.Sync())
	assert.ErrorIs(t, f.Close(), ErrInjected)
}

func TestFaultyFS_FailRemove(t *testing.T) {
	tmp := t.TempDir()
	fpath := filepath.Join(tmp, "stale.dat")
	require.NoError(t, os.WriteFile(fpath, []byte("x"), 0644))

	ffs := NewFaultyFS(nil)
	ffs.FailRemove(2)

	assert.ErrorIs(t, ffs.Remove(fpath), ErrInjected)
	assert.ErrorIs(t, ffs.Remove(fpath), ErrInjected)
	assert.NoError(t, ffs.Remove(fpath))
	assert.Equal(t, 3, ffs.RemoveCalls())

	_, err := ffs.Stat(fpath)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS_FreeSpace(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)

	actual, err := ffs.FreeSpace(tmp)
	require.NoError(t, err)
	assert.Greater(t, actual, uint64(0))

	ffs.SetFreeSpace(42)
	got, err := ffs.FreeSpace(tmp)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got)

	ffs.SetFreeSpaceErr(os.ErrPermission)
	_, err = ffs.FreeSpace(tmp)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestFaultyFS_Delegation(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, ffs.MkdirAll(dir, 0755))

	fpath := filepath.Join(dir, "test.dat")
	f, err := LocalFS{}.OpenFile(fpath, os.O_CREATE, 0644)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.NoError(t, ffs.Truncate(fpath, 10))

	info, err := ffs.Stat(fpath)
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.Size())

	assert.NoError(t, ffs.Remove(fpath))
}
