// Package sieve implements the odd-only Sieve of Eratosthenes used to
// generate primes in bounded memory.
//
// Two stages are provided:
//
//   - [BaseOddPrimes] sieves every odd number up to a small limit (√bound)
//     once per run. Its output strikes composites everywhere below bound.
//   - [Segmenter] sieves consecutive fixed-size windows of odd numbers
//     above that, carrying one cursor per base prime across windows so no
//     starting offset is recomputed.
//
// Index i of a window starting at lo represents the value lo+2i; the even
// prime 2 is never represented and must be seeded by the caller.
package sieve
