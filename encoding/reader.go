package encoding

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/format"
)

// Varint width limits: 32-bit values terminate within 5 bytes, 64-bit values
// within 10. A continuation bit past the limit is malformed input.
const (
	maxIntVarintLen  = 5
	maxLongVarintLen = 10
)

// Decoder reads Avro-encoded primitive values from an io.Reader.
//
// A clean EOF on the first byte of a value surfaces as io.EOF so callers can
// detect stream boundaries; EOF anywhere inside a value is reported as
// errs.ErrUnexpectedEnd. All errors carry the byte offset at which they were
// detected.
//
// Note: The Decoder is NOT thread-safe. Each decoder instance should be used
// by a single goroutine at a time.
type Decoder struct {
	r      *bufio.Reader
	offset int64
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	if br, ok := r.(*bufio.Reader); ok {
		return &Decoder{r: br}
	}

	return &Decoder{r: bufio.NewReader(r)}
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int64 {
	return d.offset
}

// readByte reads one byte. first marks whether this is the first byte of a
// value, which determines how EOF is classified.
func (d *Decoder) readByte(first bool) (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			if first {
				return 0, io.EOF
			}

			return 0, fmt.Errorf("%w: at byte %d", errs.ErrUnexpectedEnd, d.offset)
		}

		return 0, err
	}

	d.offset++

	return b, nil
}

// ReadBoolean decodes a single-byte boolean.
func (d *Decoder) ReadBoolean() (bool, error) {
	b, err := d.readByte(true)
	if err != nil {
		return false, err
	}

	return b != 0x00, nil
}

// ReadInt decodes a zig-zag varint into a 32-bit signed integer.
//
// Consumes no more bytes than necessary to detect a malformed varint: the
// error is raised as soon as the 5th byte still carries a continuation bit,
// before any 6th byte is read.
func (d *Decoder) ReadInt() (int32, error) {
	uval, err := d.readUvarint(maxIntVarintLen)
	if err != nil {
		return 0, err
	}

	if uval > math.MaxUint32 {
		return 0, fmt.Errorf("%w: value exceeds 32 bits at byte %d", errs.ErrMalformedVarint, d.offset)
	}

	v := uint32(uval)

	return int32(v>>1) ^ -int32(v&1), nil
}

// ReadLong decodes a zig-zag varint into a 64-bit signed integer.
func (d *Decoder) ReadLong() (int64, error) {
	uval, err := d.readUvarint(maxLongVarintLen)
	if err != nil {
		return 0, err
	}

	return int64(uval>>1) ^ -int64(uval&1), nil //nolint:gosec
}

// readUvarint reads 7-bit groups little-endian until a byte without the
// continuation bit, or fails once maxLen bytes were consumed without
// termination.
func (d *Decoder) readUvarint(maxLen int) (uint64, error) {
	var uval uint64

	for i := 0; ; i++ {
		if i == maxLen {
			return 0, fmt.Errorf("%w: no terminator within %d bytes at byte %d", errs.ErrMalformedVarint, maxLen, d.offset)
		}

		b, err := d.readByte(i == 0)
		if err != nil {
			return 0, err
		}

		if i == maxLen-1 && b >= 0x80 {
			return 0, fmt.Errorf("%w: no terminator within %d bytes at byte %d", errs.ErrMalformedVarint, maxLen, d.offset)
		}

		uval |= uint64(b&0x7f) << (7 * i)
		if b < 0x80 {
			return uval, nil
		}
	}
}

// ReadFloat decodes 4 raw little-endian IEEE-754 bytes.
func (d *Decoder) ReadFloat() (float32, error) {
	var tmp [4]byte
	if err := d.readFull(tmp[:]); err != nil {
		return 0, err
	}

	return math.Float32frombits(binary.LittleEndian.Uint32(tmp[:])), nil
}

// ReadDouble decodes 8 raw little-endian IEEE-754 bytes.
func (d *Decoder) ReadDouble() (float64, error) {
	var tmp [8]byte
	if err := d.readFull(tmp[:]); err != nil {
		return 0, err
	}

	return math.Float64frombits(binary.LittleEndian.Uint64(tmp[:])), nil
}

// ReadBytes decodes a long length prefix followed by that many raw bytes.
func (d *Decoder) ReadBytes() ([]byte, error) {
	size, err := d.readLength()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	if err := d.readFull(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// ReadString decodes a long length prefix followed by that many UTF-8 bytes.
func (d *Decoder) ReadString() (string, error) {
	buf, err := d.ReadBytes()
	if err != nil {
		return "", err
	}

	return string(buf), nil
}

// ReadFixed reads exactly size raw bytes.
func (d *Decoder) ReadFixed(size int) ([]byte, error) {
	buf := make([]byte, size)
	if err := d.readFull(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// SkipBytes discards a length-prefixed byte sequence without retaining it.
func (d *Decoder) SkipBytes() error {
	size, err := d.readLength()
	if err != nil {
		return err
	}

	return d.Skip(size)
}

// Skip discards exactly n bytes from the input.
func (d *Decoder) Skip(n int64) error {
	discarded, err := d.r.Discard(int(n))
	d.offset += int64(discarded)

	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: at byte %d", errs.ErrUnexpectedEnd, d.offset)
		}

		return err
	}

	return nil
}

// readLength reads a long length prefix and validates its range.
func (d *Decoder) readLength() (int64, error) {
	size, err := d.ReadLong()
	if err != nil {
		return 0, err
	}

	if size < 0 {
		return 0, fmt.Errorf("%w: negative length %d at byte %d", errs.ErrMalformedLength, size, d.offset)
	}

	if size > format.MaxBlockLength {
		return 0, fmt.Errorf("%w: length %d exceeds limit at byte %d", errs.ErrMalformedLength, size, d.offset)
	}

	return size, nil
}

// readFull fills buf, mapping any EOF to ErrUnexpectedEnd. A read of zero
// bytes is a no-op and cannot fail.
func (d *Decoder) readFull(buf []byte) error {
	n, err := io.ReadFull(d.r, buf)
	d.offset += int64(n)

	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: at byte %d", errs.ErrUnexpectedEnd, d.offset)
		}

		return err
	}

	return nil
}

// ReadBlockCount reads the count opening an array or map block.
//
// A negative count -n on the wire means n items follow, preceded by a long
// byte size for skip support; ReadBlockCount consumes that size and returns
// (n, size). A non-negative count returns (count, -1): the block's byte size
// is unknown.
func (d *Decoder) ReadBlockCount() (count int64, size int64, err error) {
	count, err = d.ReadLong()
	if err != nil {
		return 0, 0, err
	}

	if count >= 0 {
		return count, -1, nil
	}

	size, err = d.readLength()
	if err != nil {
		return 0, 0, err
	}

	return -count, size, nil
}
