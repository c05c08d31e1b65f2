//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int) ([]byte, func() error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return unix.Munmap(data) }, nil
}

var advice = map[Access]int{
	AccessNormal:     unix.MADV_NORMAL,
	AccessSequential: unix.MADV_SEQUENTIAL,
	AccessRandom:     unix.MADV_RANDOM,
	AccessDontNeed:   unix.MADV_DONTNEED,
}

func osAdvise(data []byte, a Access) error {
	adv, ok := advice[a]
	if !ok {
		adv = unix.MADV_NORMAL
	}
	// Hints are advisory; EINVAL (unsupported advice) is not an error.
	if err := unix.Madvise(data, adv); err != nil && !errors.Is(err, unix.EINVAL) {
		return err
	}
	return nil
}
