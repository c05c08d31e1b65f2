// Package engine runs a single prime generation: it validates the request,
// preflights the store volume, estimates an upper bound, builds the base
// primes and drives the segmented sieve until the store holds the requested
// number of primes or the run is cancelled.
//
// A run moves through the states
//
//	Init → Seeded → Sieving → {Done | Stopped | Failed}
//
// and always ends in exactly one terminal state. The store is flushed and
// closed, and the final progress observation is emitted, before Run returns.
package engine
