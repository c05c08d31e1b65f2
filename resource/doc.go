// Package resource governs the memory, worker and IO budgets shared by
// generation and export runs.
//
//   - Memory: sieve buffers (window bitmap, base primes, cursors) are
//     reserved before a run starts sieving and released when it ends.
//   - Workers: each generation or export run holds one worker slot.
//   - IO: export output can be throttled with a token bucket through
//     RateLimitedWriter.
//
// A Controller may be shared between Generators. All methods are safe for
// concurrent use, and a nil *Controller imposes no limits.
package resource
