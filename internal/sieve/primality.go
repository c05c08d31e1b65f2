package sieve

import "math/bits"

var smallPrimes = [...]uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37}

// IsPrime reports whether n is prime. It is a deterministic Miller-Rabin test
// over the first twelve primes as witnesses, exact for every uint64.
func IsPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	for _, p := range smallPrimes {
		if n%p == 0 {
			return n == p
		}
	}

	d := n - 1
	r := 0
	for d&1 == 0 {
		d >>= 1
		r++
	}

witness:
	for _, a := range smallPrimes {
		x := powMod(a, d, n)
		if x == 1 || x == n-1 {
			continue
		}
		for range r - 1 {
			x = mulMod(x, x, n)
			if x == n-1 {
				continue witness
			}
		}
		return false
	}
	return true
}

func mulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	_, rem := bits.Div64(hi, lo, m)
	return rem
}

func powMod(base, exp, m uint64) uint64 {
	result := uint64(1)
	base %= m
	for exp > 0 {
		if exp&1 == 1 {
			result = mulMod(result, base, m)
		}
		base = mulMod(base, base, m)
		exp >>= 1
	}
	return result
}
