package bitset

import (
	"math/bits"
)

const wordBits = 64

// BitSet is a fixed-length bitset. Bits beyond Len are never reported.
type BitSet struct {
	words []uint64
	size  uint64
}

// New creates a new BitSet with the given size (in bits).
func New(size uint64) *BitSet {
	return &BitSet{
		words: make([]uint64, wordsFor(size)),
		size:  size,
	}
}

func wordsFor(size uint64) uint64 {
	return (size + wordBits - 1) / wordBits
}

// Len returns the number of addressable bits.
func (b *BitSet) Len() uint64 {
	return b.size
}

// Bytes returns the memory footprint of the backing array.
func (b *BitSet) Bytes() int64 {
	return int64(cap(b.words)) * 8
}

// Reset clears every bit and sets the length to size.
// The backing array is reused when it is large enough.
func (b *BitSet) Reset(size uint64) {
	n := wordsFor(size)
	if uint64(cap(b.words)) < n {
		b.words = make([]uint64, n)
	} else {
		b.words = b.words[:n]
		clear(b.words)
	}
	b.size = size
}

// ClearAll unsets every bit, keeping the length.
func (b *BitSet) ClearAll() {
	clear(b.words)
}

// Set sets the bit at the given index.
func (b *BitSet) Set(i uint64) {
	if i >= b.size {
		return
	}
	b.words[i/wordBits] |= 1 << (i % wordBits)
}

// Unset clears the bit at the given index.
func (b *BitSet) Unset(i uint64) {
	if i >= b.size {
		return
	}
	b.words[i/wordBits] &^= 1 << (i % wordBits)
}

// Test returns true if the bit at the given index is set.
func (b *BitSet) Test(i uint64) bool {
	if i >= b.size {
		return false
	}
	return b.words[i/wordBits]&(1<<(i%wordBits)) != 0
}

// SetStride sets bits start, start+step, start+2*step, ... below Len and
// returns the first index at or beyond Len.
func (b *BitSet) SetStride(start, step uint64) uint64 {
	words := b.words
	i := start
	for ; i < b.size; i += step {
		words[i/wordBits] |= 1 << (i % wordBits)
	}
	return i
}

// NextSetBit returns the index of the next set bit starting from i (inclusive).
// Returns -1 if no bit is set after i.
func (b *BitSet) NextSetBit(i uint64) int64 {
	return b.next(i, false)
}

// NextClearBit returns the index of the next unset bit starting from i (inclusive).
// Returns -1 if every bit from i to Len is set.
func (b *BitSet) NextClearBit(i uint64) int64 {
	return b.next(i, true)
}

func (b *BitSet) next(i uint64, invert bool) int64 {
	if i >= b.size {
		return -1
	}
	w := i / wordBits
	val := b.words[w]
	if invert {
		val = ^val
	}
	// Mask out bits before the offset
	val &= ^uint64(0) << (i % wordBits)
	for {
		if val != 0 {
			idx := w*wordBits + uint64(bits.TrailingZeros64(val))
			if idx >= b.size {
				return -1
			}
			return int64(idx)
		}
		w++
		if w >= uint64(len(b.words)) {
			return -1
		}
		val = b.words[w]
		if invert {
			val = ^val
		}
	}
}

// Count returns the number of set bits.
func (b *BitSet) Count() int {
	count := 0
	full := b.size / wordBits
	for _, val := range b.words[:full] {
		count += bits.OnesCount64(val)
	}
	if rem := b.size % wordBits; rem != 0 {
		count += bits.OnesCount64(b.words[full] & (1<<rem - 1))
	}
	return count
}
