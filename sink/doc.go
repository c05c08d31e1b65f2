// Package sink provides export destinations.
//
// A Sink receives the text produced by an export. Close commits the output;
// Abort abandons it. Local file sinks keep whatever was written before Abort
// so that an interrupted export leaves its partial output on disk. Remote
// sinks (see the minio and s3 subpackages) cancel the upload instead.
//
// Local paths ending in ".zst" or ".lz4" are compressed transparently.
package sink
