// Package compress provides the block compression codecs used by Avro
// container files.
//
// Codecs are selected by the name stored in the file's "avro.codec" metadata
// entry. The standard codecs null, deflate, snappy and zstandard are always
// registered; lz4 is a nonstandard extension usable between writers and
// readers built on this package.
//
// Each codec operates on whole blocks: Compress receives the uncompressed
// bytes of one block and returns its on-disk form, Decompress inverts it.
// Codecs carrying an integrity check (snappy) verify it during Decompress and
// report failures as errs.ErrCodecCorrupt.
package compress
