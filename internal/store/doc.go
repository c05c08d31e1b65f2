// Package store implements the external result store: a fixed-length,
// file-backed array of host-order uint64 slots, one file per generation run.
//
// A run creates the file with [Create] after [Preflight] has confirmed the
// volume can hold it. The [Writer] only ever appends at the current fill
// offset and must be closed (flush, then release) on every exit path.
// Readers map the file with [Open] and must clamp every access to the fill
// count they last observed; slots past it are unspecified.
package store
