package datum

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/schema"
)

// Duration is the value of the duration logical type: a coarse calendar span
// carried as three independent unsigned fields.
type Duration struct {
	Months uint32
	Days   uint32
	Millis uint32
}

// DurationValue packs a duration into its 12-byte fixed encoding: the three
// fields as little-endian uint32 in months, days, millis order.
func DurationValue(d Duration) Value {
	raw := make([]byte, schema.DurationSize)
	binary.LittleEndian.PutUint32(raw[0:4], d.Months)
	binary.LittleEndian.PutUint32(raw[4:8], d.Days)
	binary.LittleEndian.PutUint32(raw[8:12], d.Millis)

	return Fixed(raw)
}

// DurationFromValue unpacks a duration from its 12-byte fixed encoding.
func DurationFromValue(v Value) (Duration, error) {
	if (v.Kind() != KindFixed && v.Kind() != KindBytes) || len(v.Bytes()) != schema.DurationSize {
		return Duration{}, fmt.Errorf("%w: duration requires a 12-byte fixed, got %s of %d bytes",
			errs.ErrSchemaMismatch, v.Kind(), len(v.Bytes()))
	}

	raw := v.Bytes()

	return Duration{
		Months: binary.LittleEndian.Uint32(raw[0:4]),
		Days:   binary.LittleEndian.Uint32(raw[4:8]),
		Millis: binary.LittleEndian.Uint32(raw[8:12]),
	}, nil
}

// DecimalValue encodes an unscaled integer as the decimal logical type's
// two's-complement big-endian byte form under a bytes schema.
//
// The caller tracks the scale through the schema; the wire carries only the
// unscaled integer.
func DecimalValue(unscaled *big.Int) Value {
	return Bytes(decimalBytes(unscaled, 0))
}

// DecimalFixedValue encodes an unscaled integer into exactly size bytes of
// two's-complement for a fixed-backed decimal. Values that do not fit return
// an error.
func DecimalFixedValue(unscaled *big.Int, size int) (Value, error) {
	raw := decimalBytes(unscaled, size)

	// decimalBytes may lead a negative value with a redundant 0xff byte; drop
	// it when the next byte already carries the sign.
	if len(raw) == size+1 && raw[0] == 0xff && raw[1]&0x80 != 0 {
		raw = raw[1:]
	}

	if len(raw) > size {
		return Value{}, fmt.Errorf("%w: decimal %s does not fit in %d bytes", errs.ErrSchemaMismatch, unscaled, size)
	}

	return Fixed(raw), nil
}

// decimalBytes renders two's-complement big-endian bytes, sign-extended to at
// least minSize.
func decimalBytes(unscaled *big.Int, minSize int) []byte {
	var raw []byte

	if unscaled.Sign() >= 0 {
		raw = unscaled.Bytes()

		// A leading 1 bit would read back negative; prepend a zero byte.
		if len(raw) == 0 || raw[0]&0x80 != 0 {
			raw = append([]byte{0x00}, raw...)
		}

		for len(raw) < minSize {
			raw = append([]byte{0x00}, raw...)
		}

		return raw
	}

	// Two's complement of a negative value: invert abs-1.
	abs := new(big.Int).Neg(unscaled)
	abs.Sub(abs, big.NewInt(1))
	raw = abs.Bytes()

	size := len(raw) + 1
	if size < minSize {
		size = minSize
	}

	out := make([]byte, size)
	for i := range out {
		out[i] = 0xff
	}

	// ^(abs-1) is -abs in two's complement; higher bytes stay 0xff.
	for i, b := range raw {
		out[size-len(raw)+i] = ^b
	}

	return out
}

// DecimalFromValue decodes the two's-complement big-endian unscaled integer
// of a decimal value.
func DecimalFromValue(v Value) (*big.Int, error) {
	if v.Kind() != KindBytes && v.Kind() != KindFixed {
		return nil, fmt.Errorf("%w: decimal requires bytes or fixed, got %s", errs.ErrSchemaMismatch, v.Kind())
	}

	raw := v.Bytes()
	if len(raw) == 0 {
		return big.NewInt(0), nil
	}

	unscaled := new(big.Int).SetBytes(raw)

	if raw[0]&0x80 != 0 {
		// Negative: subtract 2^(8*len).
		shift := new(big.Int).Lsh(big.NewInt(1), uint(len(raw)*8))
		unscaled.Sub(unscaled, shift)
	}

	return unscaled, nil
}

// DateValue encodes a civil date as days since the Unix epoch under the date
// logical type.
func DateValue(t time.Time) Value {
	secs := t.Unix()
	days := secs / 86400
	if secs < 0 && secs%86400 != 0 {
		days--
	}

	return Int(int32(days)) //nolint:gosec
}

// DateFromValue decodes a date logical value into a UTC midnight time.
func DateFromValue(v Value) time.Time {
	return time.Unix(int64(v.Int())*86400, 0).UTC()
}

// TimestampMillisValue encodes an instant as milliseconds since the Unix
// epoch.
func TimestampMillisValue(t time.Time) Value {
	return Long(t.UnixMilli())
}

// TimestampMillisFromValue decodes a timestamp-millis logical value.
func TimestampMillisFromValue(v Value) time.Time {
	return time.UnixMilli(v.Long()).UTC()
}

// TimestampMicrosValue encodes an instant as microseconds since the Unix
// epoch.
func TimestampMicrosValue(t time.Time) Value {
	return Long(t.UnixMicro())
}

// TimestampMicrosFromValue decodes a timestamp-micros logical value.
func TimestampMicrosFromValue(v Value) time.Time {
	return time.UnixMicro(v.Long()).UTC()
}

// TimeMillisValue encodes a time of day as milliseconds after midnight.
func TimeMillisValue(d time.Duration) Value {
	return Int(int32(d / time.Millisecond)) //nolint:gosec
}

// TimeMicrosValue encodes a time of day as microseconds after midnight.
func TimeMicrosValue(d time.Duration) Value {
	return Long(int64(d / time.Microsecond))
}

// UUIDValue encodes a UUID as its canonical 36-character string form.
func UUIDValue(id uuid.UUID) Value {
	return String(id.String())
}

// UUIDFromValue parses and validates a uuid logical value.
func UUIDFromValue(v Value) (uuid.UUID, error) {
	if v.Kind() != KindString {
		return uuid.Nil, fmt.Errorf("%w: uuid requires a string, got %s", errs.ErrSchemaMismatch, v.Kind())
	}

	id, err := uuid.Parse(v.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errs.ErrSchemaMismatch, err)
	}

	return id, nil
}
