// Package errs defines the sentinel errors shared across avrofile packages.
//
// Callers match error kinds with errors.Is; call sites attach detail by
// wrapping the sentinel, e.g. fmt.Errorf("%w: at byte %d", errs.ErrMalformedVarint, off).
package errs

import "errors"

// Container header and framing errors.
var (
	// ErrInvalidHeader indicates a magic mismatch, missing required metadata,
	// or a malformed metadata map at the start of a container file.
	ErrInvalidHeader = errors.New("invalid container header")

	// ErrSyncMarkerMismatch indicates the 16 bytes trailing a block differ
	// from the file's sync marker. The stream is corrupt past this point.
	ErrSyncMarkerMismatch = errors.New("sync marker mismatch")

	// ErrWriterClosed indicates an operation on a closed container writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// Primitive decode errors.
var (
	// ErrMalformedVarint indicates a variable-length integer exceeded its
	// maximum width (5 bytes for int, 10 for long) or overflowed the target.
	ErrMalformedVarint = errors.New("malformed varint")

	// ErrMalformedLength indicates a negative length prefix on bytes,
	// strings, or block framing, or one above format.MaxBlockLength.
	ErrMalformedLength = errors.New("malformed length")

	// ErrUnexpectedEnd indicates the input ended in the middle of a value.
	ErrUnexpectedEnd = errors.New("unexpected end of input")
)

// Compression layer errors.
var (
	// ErrUnsupportedCodec indicates an avro.codec name with no registered codec.
	ErrUnsupportedCodec = errors.New("unsupported codec")

	// ErrCodecCorrupt indicates compressed block data that fails checksum
	// verification or cannot be decompressed.
	ErrCodecCorrupt = errors.New("codec data corrupt")
)

// Schema errors.
var (
	// ErrSchemaParse indicates schema JSON that is syntactically invalid or
	// structurally illegal (duplicate names, bad unions, invalid symbols).
	ErrSchemaParse = errors.New("schema parse error")

	// ErrSchemaMismatch indicates a value that cannot be encoded under the
	// writer schema.
	ErrSchemaMismatch = errors.New("value does not match schema")

	// ErrSchemaIncompatible indicates a writer schema that cannot be
	// resolved against the requested reader schema.
	ErrSchemaIncompatible = errors.New("writer and reader schemas are incompatible")

	// ErrEnumSymbolMissing indicates a writer enum symbol absent from the
	// reader enum during resolution.
	ErrEnumSymbolMissing = errors.New("enum symbol missing from reader schema")
)
