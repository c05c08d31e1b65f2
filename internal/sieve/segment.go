package sieve

import (
	"sort"

	"github.com/hupe1980/primegen/internal/bitset"
)

// Segmenter sieves consecutive windows of odd numbers against a fixed set of
// base primes.
//
// cursors[i] holds the next odd multiple of primes[i] still to be struck, or
// zero before the prime is first used. Cursors only move forward, so windows
// must be sieved in ascending, contiguous order.
type Segmenter struct {
	primes  []uint64
	cursors []uint64
	marks   *bitset.BitSet
	slots   uint64
}

// NewSegmenter creates a Segmenter whose windows hold at most slots odd numbers.
func NewSegmenter(basePrimes []uint64, slots uint64) *Segmenter {
	if slots == 0 {
		slots = 1
	}
	return &Segmenter{
		primes:  basePrimes,
		cursors: make([]uint64, len(basePrimes)),
		marks:   bitset.New(slots),
		slots:   slots,
	}
}

// Slots returns the maximum number of odd values per window.
func (s *Segmenter) Slots() uint64 {
	return s.slots
}

// BaseCount returns the number of base primes.
func (s *Segmenter) BaseCount() int {
	return len(s.primes)
}

// MaxBase returns the largest base prime, or 0 if there is none.
func (s *Segmenter) MaxBase() uint64 {
	if len(s.primes) == 0 {
		return 0
	}
	return s.primes[len(s.primes)-1]
}

// Bytes estimates the heap held by the segmenter.
func (s *Segmenter) Bytes() int64 {
	return s.marks.Bytes() + int64(cap(s.primes)+cap(s.cursors))*8
}

// Extend adopts a larger base prime list. primes must start with the current
// base primes; existing cursors keep their rank and position.
func (s *Segmenter) Extend(primes []uint64) {
	if len(primes) <= len(s.primes) {
		return
	}
	cursors := make([]uint64, len(primes))
	copy(cursors, s.cursors)
	s.primes = primes
	s.cursors = cursors
}

// WindowEnd returns the exclusive end of the window that starts at lo and is
// capped so that it does not pass limit+1.
func (s *Segmenter) WindowEnd(lo, limit uint64) uint64 {
	hi := lo + 2*s.slots
	if limit+1 < hi {
		hi = limit + 1
	}
	return hi
}

// Sieve strikes composites among the odd values in [lo, hi), appends the
// survivors to dst in ascending order and returns the extended slice along
// with the start of the next window.
//
// lo must be odd and ≥ 3, and the window may hold at most Slots values.
// Every prime ≤ √(hi-1) must be among the base primes.
func (s *Segmenter) Sieve(lo, hi uint64, dst []uint64) ([]uint64, uint64) {
	n := (hi - lo + 1) / 2
	if n > s.slots {
		n = s.slots
	}
	next := lo + 2*n
	if n == 0 {
		return dst, next
	}
	s.marks.Reset(n)

	// Only primes whose square lies inside the window can strike in it.
	top := ISqrt(next - 1)
	active := sort.Search(len(s.primes), func(i int) bool { return s.primes[i] > top })

	for i := range active {
		p := s.primes[i]
		c := s.cursors[i]
		if c < lo {
			c = firstOddMultiple(p, lo)
		}
		if c < next {
			idx := s.marks.SetStride((c-lo)/2, p)
			c = lo + 2*idx
		}
		s.cursors[i] = c
	}

	for i := s.marks.NextClearBit(0); i >= 0; i = s.marks.NextClearBit(uint64(i) + 1) {
		dst = append(dst, lo+2*uint64(i))
	}
	return dst, next
}

// firstOddMultiple returns the first odd multiple of p that is ≥ lo and ≥ p².
func firstOddMultiple(p, lo uint64) uint64 {
	m := p * p
	if m < lo {
		m = (lo + p - 1) / p * p
	}
	if m&1 == 0 {
		m += p
	}
	return m
}
