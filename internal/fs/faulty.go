package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the default error returned by injected faults.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior.
type Fault struct {
	FailAfterBytes int64 // Fail writes after this many bytes written TO THIS FILE. -1 to disable.
	FailOnSync     bool
	FailOnClose    bool
	Err            error
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FS      FileSystem
	mu      sync.Mutex
	rules   map[string]Fault // Filename pattern -> Fault
	Default Fault            // Fallback

	written        int64
	removeFailures int
	removeCalls    int
	freeSpace      *uint64
	freeSpaceErr   error
	opened         []string
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:    fs,
		rules: make(map[string]Fault),
		Default: Fault{
			FailAfterBytes: -1, // No limit
		},
	}
}

// AddRule adds a fault injection rule for a specific file pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

// FailRemove makes the next n Remove calls fail without touching the file.
func (f *FaultyFS) FailRemove(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeFailures = n
}

// RemoveCalls returns how many times Remove was called.
func (f *FaultyFS) RemoveCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removeCalls
}

// SetFreeSpace overrides the reported free space.
func (f *FaultyFS) SetFreeSpace(bytes uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.freeSpace = &bytes
	f.freeSpaceErr = nil
}

// SetFreeSpaceErr makes FreeSpace fail with err.
func (f *FaultyFS) SetFreeSpaceErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.freeSpaceErr = err
}

// GetWritten returns the total bytes written through this FS.
func (f *FaultyFS) GetWritten() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written
}

// Opened returns the names passed to successful OpenFile calls.
func (f *FaultyFS) Opened() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.opened...)
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.opened = append(f.opened, name)
	fault := f.Default
	// Match pattern (last winning match)
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			fault = rule
		}
	}
	if fault.Err == nil {
		fault.Err = ErrInjected
	}
	f.mu.Unlock()

	return &faultyFile{File: file, fs: f, fault: fault}, nil
}

func (f *FaultyFS) Remove(name string) error {
	f.mu.Lock()
	f.removeCalls++
	if f.removeFailures > 0 {
		f.removeFailures--
		f.mu.Unlock()
		return ErrInjected
	}
	f.mu.Unlock()
	return f.FS.Remove(name)
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}

func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}

func (f *FaultyFS) Truncate(name string, size int64) error {
	return f.FS.Truncate(name, size)
}

func (f *FaultyFS) FreeSpace(dir string) (uint64, error) {
	f.mu.Lock()
	override, err := f.freeSpace, f.freeSpaceErr
	f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	if override != nil {
		return *override, nil
	}
	return f.FS.FreeSpace(dir)
}

type faultyFile struct {
	File
	fs      *FaultyFS
	fault   Fault
	written int64
}

func (ff *faultyFile) admit(n int) error {
	if ff.fault.FailAfterBytes >= 0 && ff.written+int64(n) > ff.fault.FailAfterBytes {
		return ff.fault.Err
	}
	return nil
}

func (ff *faultyFile) account(n int) {
	if n <= 0 {
		return
	}
	ff.written += int64(n)
	ff.fs.mu.Lock()
	ff.fs.written += int64(n)
	ff.fs.mu.Unlock()
}

func (ff *faultyFile) Write(p []byte) (n int, err error) {
	if err := ff.admit(len(p)); err != nil {
		return 0, err
	}
	n, err = ff.File.Write(p)
	ff.account(n)
	return n, err
}

func (ff *faultyFile) WriteAt(p []byte, off int64) (n int, err error) {
	if err := ff.admit(len(p)); err != nil {
		return 0, err
	}
	n, err = ff.File.WriteAt(p, off)
	ff.account(n)
	return n, err
}

func (ff *faultyFile) Sync() error {
	if ff.fault.FailOnSync {
		return ff.fault.Err
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	if ff.fault.FailOnClose {
		_ = ff.File.Close()
		return ff.fault.Err
	}
	return ff.File.Close()
}
