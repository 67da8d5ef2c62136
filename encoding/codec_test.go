package encoding

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/internal/pool"
)

func newEncoder() (*Encoder, *pool.ByteBuffer) {
	buf := pool.NewByteBuffer(64)
	return NewEncoder(buf), buf
}

func decoderFor(data []byte) *Decoder {
	return NewDecoder(bytes.NewReader(data))
}

func TestBoolean_RoundTrip(t *testing.T) {
	enc, buf := newEncoder()
	enc.WriteBoolean(true)
	enc.WriteBoolean(false)

	require.Equal(t, []byte{0x01, 0x00}, buf.Bytes())

	dec := decoderFor(buf.Bytes())

	v, err := dec.ReadBoolean()
	require.NoError(t, err)
	require.True(t, v)

	v, err = dec.ReadBoolean()
	require.NoError(t, err)
	require.False(t, v)
}

func TestInt_ZigZagWire(t *testing.T) {
	tests := []struct {
		value int32
		wire  []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x01}},
		{1, []byte{0x02}},
		{-2, []byte{0x03}},
		{2, []byte{0x04}},
		{63, []byte{0x7e}},
		{64, []byte{0x80, 0x01}},
		{-64, []byte{0x7f}},
		{-65, []byte{0x81, 0x01}},
		{math.MaxInt32, []byte{0xfe, 0xff, 0xff, 0xff, 0x0f}},
		{math.MinInt32, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}

	for _, tt := range tests {
		enc, buf := newEncoder()
		enc.WriteInt(tt.value)
		require.Equal(t, tt.wire, buf.Bytes(), "value %d", tt.value)

		got, err := decoderFor(buf.Bytes()).ReadInt()
		require.NoError(t, err)
		require.Equal(t, tt.value, got)
	}
}

func TestLong_RoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, 63, 64, -64, -65, math.MaxInt32, math.MinInt32, math.MaxInt64, math.MinInt64}

	enc, buf := newEncoder()
	for _, v := range values {
		enc.WriteLong(v)
	}

	dec := decoderFor(buf.Bytes())
	for _, want := range values {
		got, err := dec.ReadLong()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	require.Equal(t, int64(buf.Len()), dec.Offset())
}

func TestInt_MalformedVarint(t *testing.T) {
	// A 5th byte still carrying a continuation bit exceeds the int limit.
	dec := decoderFor([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80})

	_, err := dec.ReadInt()
	require.ErrorIs(t, err, errs.ErrMalformedVarint)

	// Error detection consumes no more bytes than necessary: the 5th byte
	// proves the violation, the 6th stays unread.
	require.Equal(t, int64(5), dec.Offset())
}

func TestInt_OverflowsWidth(t *testing.T) {
	// 5 bytes terminating cleanly but exceeding 32 bits of magnitude.
	dec := decoderFor([]byte{0xff, 0xff, 0xff, 0xff, 0x7f})

	_, err := dec.ReadInt()
	require.ErrorIs(t, err, errs.ErrMalformedVarint)
}

func TestLong_MalformedVarint(t *testing.T) {
	// An 11th continuation byte exceeds the long limit.
	data := bytes.Repeat([]byte{0x80}, 11)
	dec := decoderFor(data)

	_, err := dec.ReadLong()
	require.ErrorIs(t, err, errs.ErrMalformedVarint)
	require.Equal(t, int64(10), dec.Offset())
}

func TestVarint_UnexpectedEnd(t *testing.T) {
	dec := decoderFor([]byte{0x80, 0x80})

	_, err := dec.ReadLong()
	require.ErrorIs(t, err, errs.ErrUnexpectedEnd)
}

func TestVarint_CleanEOFOnFirstByte(t *testing.T) {
	dec := decoderFor(nil)

	_, err := dec.ReadLong()
	require.ErrorIs(t, err, io.EOF)
}

func TestFloat_RoundTrip(t *testing.T) {
	enc, buf := newEncoder()
	enc.WriteFloat(1.5)

	require.Equal(t, []byte{0x00, 0x00, 0xc0, 0x3f}, buf.Bytes())

	got, err := decoderFor(buf.Bytes()).ReadFloat()
	require.NoError(t, err)
	require.Equal(t, float32(1.5), got)
}

func TestDouble_RoundTrip(t *testing.T) {
	enc, buf := newEncoder()
	enc.WriteDouble(-2.25)

	got, err := decoderFor(buf.Bytes()).ReadDouble()
	require.NoError(t, err)
	require.Equal(t, -2.25, got)
}

func TestDouble_UnexpectedEnd(t *testing.T) {
	enc, buf := newEncoder()
	enc.WriteDouble(1)

	_, err := decoderFor(buf.Bytes()[:4]).ReadDouble()
	require.ErrorIs(t, err, errs.ErrUnexpectedEnd)
}

func TestBytes_RoundTrip(t *testing.T) {
	enc, buf := newEncoder()
	enc.WriteBytes([]byte{0xde, 0xad})

	require.Equal(t, []byte{0x04, 0xde, 0xad}, buf.Bytes())

	got, err := decoderFor(buf.Bytes()).ReadBytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad}, got)
}

func TestString_RoundTrip(t *testing.T) {
	enc, buf := newEncoder()
	enc.WriteString("héllo")

	got, err := decoderFor(buf.Bytes()).ReadString()
	require.NoError(t, err)
	require.Equal(t, "héllo", got)
}

func TestBytes_NegativeLength(t *testing.T) {
	// Zig-zag 0x01 decodes to -1.
	dec := decoderFor([]byte{0x01})

	_, err := dec.ReadBytes()
	require.ErrorIs(t, err, errs.ErrMalformedLength)
}

func TestBytes_TruncatedPayload(t *testing.T) {
	dec := decoderFor([]byte{0x06, 'a'})

	_, err := dec.ReadBytes()
	require.ErrorIs(t, err, errs.ErrUnexpectedEnd)
}

func TestFixed_RoundTrip(t *testing.T) {
	enc, buf := newEncoder()
	enc.WriteFixed([]byte{1, 2, 3})

	require.Equal(t, []byte{1, 2, 3}, buf.Bytes())

	got, err := decoderFor(buf.Bytes()).ReadFixed(3)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)
}

func TestBlockCount_Positive(t *testing.T) {
	enc, buf := newEncoder()
	enc.WriteBlockCount(3)

	count, size, err := decoderFor(buf.Bytes()).ReadBlockCount()
	require.NoError(t, err)
	require.Equal(t, int64(3), count)
	require.Equal(t, int64(-1), size)
}

func TestBlockCount_NegativeCarriesSize(t *testing.T) {
	// A count of -2 followed by a byte size of 10.
	enc, buf := newEncoder()
	enc.WriteLong(-2)
	enc.WriteLong(10)

	count, size, err := decoderFor(buf.Bytes()).ReadBlockCount()
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
	require.Equal(t, int64(10), size)
}

func TestSkip(t *testing.T) {
	enc, buf := newEncoder()
	enc.WriteBytes([]byte("skip me"))
	enc.WriteInt(7)

	dec := decoderFor(buf.Bytes())
	require.NoError(t, dec.SkipBytes())

	got, err := dec.ReadInt()
	require.NoError(t, err)
	require.Equal(t, int32(7), got)
}

func TestSkip_PastEnd(t *testing.T) {
	dec := decoderFor([]byte{1, 2})
	require.ErrorIs(t, dec.Skip(5), errs.ErrUnexpectedEnd)
}
