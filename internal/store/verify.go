package store

import (
	"context"

	"github.com/hupe1980/primegen/internal/sieve"
)

const verifyCheckEvery = 1 << 16

// Verify checks that values is strictly increasing and that every entry is
// prime. It returns a *VerifyError for the first offending entry.
func Verify(ctx context.Context, values []uint64) error {
	var prev uint64
	for i, v := range values {
		if i%verifyCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if i > 0 && v <= prev {
			return &VerifyError{Index: uint64(i), Value: v, Reason: "is not greater than its predecessor"}
		}
		if !sieve.IsPrime(v) {
			return &VerifyError{Index: uint64(i), Value: v, Reason: "is not prime"}
		}
		prev = v
	}
	return nil
}
