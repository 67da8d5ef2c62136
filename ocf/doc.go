// Package ocf reads and writes Avro object container files.
//
// A container file is a header followed by zero or more blocks. The header
// carries the 4-byte magic, a metadata map holding the writer schema and the
// block codec name, and a 16-byte sync marker generated once per file. Each
// block is a count, a byte length, the compressed block data and a repeat of
// the sync marker.
//
// The Writer accumulates encoded datums in memory and flushes a block when
// the buffer passes the sync interval; the Reader iterates blocks lazily,
// verifying each trailing sync marker against the header before
// decompressing. Neither is safe for concurrent use; the caller serializes
// access per instance.
package ocf
