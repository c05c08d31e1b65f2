// Package primegen computes the first N prime numbers, for N from one to
// billions, into a file-backed store and exports stored runs as text.
//
// # Quick Start
//
//	g := primegen.New(primegen.WithLogger(primegen.NewTextLogger(slog.LevelInfo)))
//	defer g.Close()
//
//	req, _ := primegen.NewRequest(1_000_000, primegen.WithTmpDir("/data"))
//	runID, _ := g.Start(ctx, req)
//	res, err := g.Wait(ctx)
//	// res.Found, res.MaxPrime, res.Sum, res.Average
//
//	_ = g.Export(ctx, res.StorePath, res.Found, "/data/primes.txt.zst")
//	_, err = g.WaitExport(ctx)
//
// # Generation
//
// A run estimates an upper bound for the N-th prime, sieves the odd numbers
// below it in fixed-size windows (a segmented sieve of Eratosthenes) and
// appends the primes to a store file of exactly N 64-bit slots. If the
// estimate turns out too small the bound is grown and sieving continues, up
// to a configurable number of growths.
//
// Before any file is created the run checks that the store directory can
// hold 8·N bytes plus 16 MiB of slack.
//
// # Events
//
// An Observer receives throttled progress events, phase notices and exactly
// one terminal event per run. The first and the last progress observation
// are never throttled, and the last one always matches the terminal count.
// Stopping a run is reported through OnFailure with an error for which
// IsInterrupted returns true.
//
// # Concurrency
//
// A Generator runs at most one generation and one export at a time. Stop and
// StopExport are cooperative: the worker finishes its current window or
// block, flushes and closes its files, then reports. Close waits a bounded
// time (WithStopWait) for both workers and does not kill them.
//
// # Store Format
//
// The store is a raw array of host-order uint64 values. Only the first Found
// entries are defined; OpenStore clamps every read to a caller-provided
// count.
package primegen
