// Package bitset provides a dense, word-packed bitset sized once and reused.
//
// Architecture:
//   - Flat []uint64 backing array, one bit per slot
//   - Not safe for concurrent mutation; owned by a single sieve worker
//   - Reset clears and resizes in place without reallocating when capacity allows
//
// Used internally for:
//   - Composite marks of the odd-only base sieve
//   - Composite marks of each segmented sieve window
package bitset
