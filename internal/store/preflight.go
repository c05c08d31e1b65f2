package store

import (
	"github.com/hupe1980/primegen/internal/fs"
)

// SlackBytes is reserved on top of the slot array.
const SlackBytes = 16 << 20

// SlotSize is the on-disk size of one entry.
const SlotSize = 8

// RequiredBytes returns the disk space a store of count slots needs.
func RequiredBytes(count uint64) uint64 {
	return SlotSize*count + SlackBytes
}

// Space is the outcome of a preflight check.
type Space struct {
	Required uint64
	Free     uint64
	// Known is false when the free space could not be determined; ProbeErr
	// then holds the reason.
	Known    bool
	ProbeErr error
}

// Preflight verifies that dir can hold a store of count slots. It never
// creates files. An undeterminable free space is not an error.
func Preflight(fsys fs.FileSystem, dir string, count uint64) (Space, error) {
	sp := Space{Required: RequiredBytes(count)}
	free, err := fsys.FreeSpace(dir)
	if err != nil {
		sp.ProbeErr = err
		return sp, nil
	}
	sp.Free, sp.Known = free, true
	if free < sp.Required {
		return sp, &InsufficientSpaceError{Dir: dir, Required: sp.Required, Free: free}
	}
	return sp, nil
}
