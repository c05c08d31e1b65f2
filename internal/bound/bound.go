// Package bound estimates how far the number line must be sieved to find
// the first n primes.
package bound

import "math"

const (
	// Small is returned for n < 6; it contains the first six primes.
	Small uint64 = 15

	// Slack is added to every estimate and to every growth step.
	Slack uint64 = 1024

	// GrowthFactor scales an exhausted bound.
	GrowthFactor = 1.2
)

// NthPrime returns an upper bound for the n-th prime (1-based).
//
// The estimate is n·(ln n + ln ln n − 1 + (ln ln n − 2)/ln n), widened by a
// magnitude dependent safety factor plus Slack. It is empirical below the
// range where the closed form is a proven bound, which is why callers must
// be prepared to Grow it.
func NthPrime(n uint64) uint64 {
	if n < 6 {
		return Small
	}
	fn := float64(n)
	ln := math.Log(fn)
	lnln := math.Log(ln)
	b := fn * (ln + lnln - 1 + (lnln-2)/ln)
	switch {
	case n >= 1_000_000:
		b *= 1.08
	case n >= 100_000:
		b *= 1.06
	default:
		b *= 1.04
	}
	return saturate(b) + Slack
}

// Grow returns the next bound after b has been exhausted: b·1.2 + Slack.
func Grow(b uint64) uint64 {
	return saturate(float64(b)*GrowthFactor) + Slack
}

// maxExact keeps the result plus Slack inside uint64.
const maxExact = math.MaxUint64 - 2*Slack

func saturate(f float64) uint64 {
	if f >= float64(maxExact) {
		return maxExact
	}
	return uint64(f)
}
