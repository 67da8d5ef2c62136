// Package encoding implements the Avro binary primitive codec.
//
// It provides the byte-level wire operations every other layer is built on:
// zig-zag variable-length integers, little-endian IEEE-754 floats,
// length-prefixed bytes and strings, raw fixed runs, and the count-prefixed
// block framing used by arrays and maps.
//
// The Encoder appends to a pooled byte buffer and cannot fail; validation
// happens before bytes are produced. The Decoder reads from an io.Reader and
// reports malformed input through the errs sentinels (ErrMalformedVarint,
// ErrMalformedLength, ErrUnexpectedEnd), tagging each failure with the byte
// offset where it was detected.
package encoding
