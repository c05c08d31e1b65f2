// Package mmap maps prime store files read-only.
//
// A store holds one host-order uint64 per slot and can reach tens of
// gigabytes. Readers map it and index the values in place:
//
//	m, err := mmap.Open("primes.dat")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	for _, p := range m.Values() { ... }
//
// Unix uses mmap(2) and madvise(2). Windows uses MapViewOfFile and ignores
// hints.
//
// Values may be called concurrently. Slices it returned must not be used
// after Close.
package mmap
