package encoding

import (
	"encoding/binary"
	"math"

	"github.com/arloliu/avrofile/internal/pool"
)

// Encoder appends Avro-encoded primitive values to a byte buffer.
//
// All write methods are infallible: the buffer grows as needed and value
// validation (union placement, enum membership, fixed sizes) happens in the
// layers above before any bytes are produced.
//
// Note: The Encoder is NOT thread-safe. Each encoder instance should be used
// by a single goroutine at a time.
type Encoder struct {
	buf *pool.ByteBuffer
}

// NewEncoder creates an Encoder that appends to buf.
//
// The buffer remains owned by the caller; Size reports how many bytes the
// buffer holds in total.
func NewEncoder(buf *pool.ByteBuffer) *Encoder {
	return &Encoder{buf: buf}
}

// Size returns the total number of bytes in the underlying buffer.
func (e *Encoder) Size() int {
	return e.buf.Len()
}

// WriteBoolean encodes a boolean as a single byte, 0x00 or 0x01.
func (e *Encoder) WriteBoolean(v bool) {
	if v {
		e.buf.MustWriteByte(0x01)
	} else {
		e.buf.MustWriteByte(0x00)
	}
}

// WriteInt encodes a 32-bit signed integer as a zig-zag varint.
func (e *Encoder) WriteInt(v int32) {
	// Zigzag encoding: converts signed to unsigned
	// -1 becomes 1, -2 becomes 3, 0 stays 0, 1 becomes 2, etc.
	e.writeUvarint(uint64(uint32(v<<1) ^ uint32(v>>31)))
}

// WriteLong encodes a 64-bit signed integer as a zig-zag varint.
//
// Longs also carry every length prefix, block count, union branch index and
// enum symbol index on the wire.
func (e *Encoder) WriteLong(v int64) {
	e.writeUvarint(uint64(v<<1) ^ uint64(v>>63)) //nolint:gosec
}

// writeUvarint emits 7-bit groups little-endian with high-bit continuation.
func (e *Encoder) writeUvarint(uval uint64) {
	for uval >= 0x80 {
		e.buf.MustWriteByte(byte(uval) | 0x80)
		uval >>= 7
	}
	e.buf.MustWriteByte(byte(uval))
}

// WriteFloat encodes a float as 4 raw little-endian IEEE-754 bytes.
func (e *Encoder) WriteFloat(v float32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	e.buf.MustWrite(tmp[:])
}

// WriteDouble encodes a double as 8 raw little-endian IEEE-754 bytes.
func (e *Encoder) WriteDouble(v float64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	e.buf.MustWrite(tmp[:])
}

// WriteBytes encodes a byte sequence as a long length prefix followed by the
// raw bytes.
func (e *Encoder) WriteBytes(v []byte) {
	e.WriteLong(int64(len(v)))
	e.buf.MustWrite(v)
}

// WriteString encodes a string as a long length prefix followed by its UTF-8
// bytes.
func (e *Encoder) WriteString(v string) {
	e.WriteLong(int64(len(v)))
	e.buf.MustWrite([]byte(v))
}

// WriteFixed emits exactly len(v) raw bytes with no prefix. The caller
// guarantees the length matches the schema's fixed size.
func (e *Encoder) WriteFixed(v []byte) {
	e.buf.MustWrite(v)
}

// WriteBlockCount emits the item count opening an array or map block.
// A zero count terminates the block sequence.
func (e *Encoder) WriteBlockCount(n int64) {
	e.WriteLong(n)
}
