package sieve

import (
	"math"

	"github.com/hupe1980/primegen/internal/bitset"
)

// ISqrt returns ⌊√n⌋.
func ISqrt(n uint64) uint64 {
	r := uint64(math.Sqrt(float64(n)))
	for r > 0 && (r > math.MaxUint32 || r*r > n) {
		r--
	}
	for r < math.MaxUint32 && (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// BaseLimit returns ⌊√bound⌋ + 1, the largest value the base sieve covers.
func BaseLimit(bound uint64) uint64 {
	return ISqrt(bound) + 1
}

// BaseOddPrimes returns the odd primes ≤ limit in ascending order.
func BaseOddPrimes(limit uint64) []uint64 {
	if limit < 3 {
		return nil
	}
	// Index i represents 2i+1; size covers every odd value ≤ limit.
	size := (limit + 1) / 2
	composite := bitset.New(size)
	composite.Set(0) // 1

	for i := uint64(1); ; i++ {
		p := 2*i + 1
		if p*p > limit {
			break
		}
		if composite.Test(i) {
			continue
		}
		composite.SetStride(p*p/2, p)
	}

	primes := make([]uint64, 0, estimateCount(limit))
	for i := composite.NextClearBit(1); i >= 0; i = composite.NextClearBit(uint64(i) + 1) {
		primes = append(primes, 2*uint64(i)+1)
	}
	return primes
}

// estimateCount over-approximates π(x) so the result slice rarely regrows.
func estimateCount(x uint64) int {
	if x < 100 {
		return 25
	}
	f := float64(x)
	return int(1.26*f/math.Log(f)) + 1
}
