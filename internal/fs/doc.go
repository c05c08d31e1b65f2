// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: Represents an open file with read/write/positional-write/sync capabilities
//   - [FileSystem]: Abstracts filesystem operations (open, remove, truncate, free space)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using the os package and statfs(2)
//   - [FaultyFS]: Test utility for fault injection (I/O errors, failed removals, low disk)
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".dat", fs.Fault{FailAfterBytes: 1024})
//	ffs.SetFreeSpace(1 << 20) // pretend the volume is almost full
//
// # Design Notes
//
// This package intentionally does NOT include context.Context parameters.
// Filesystem operations are typically fast and non-interruptible at the
// syscall level; cancellation is checked by callers between operations.
package fs
