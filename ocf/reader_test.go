package ocf

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/avrofile/datum"
	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/format"
	"github.com/arloliu/avrofile/schema"
)

// writeFile builds a container file holding the given longs.
func writeFile(t *testing.T, opts []WriterOption, values ...int64) []byte {
	t.Helper()

	var sink bytes.Buffer

	w, err := NewWriter(&sink, schema.MustParse(`"long"`), opts...)
	require.NoError(t, err)

	for _, v := range values {
		require.NoError(t, w.Append(datum.Long(v)))
	}

	require.NoError(t, w.Close())

	return sink.Bytes()
}

// readLongs drains a container file of longs.
func readLongs(t *testing.T, r *Reader) []int64 {
	t.Helper()

	var got []int64
	for r.HasNext() {
		v, err := r.Read()
		require.NoError(t, err)
		got = append(got, v.Long())
	}

	return got
}

var primitiveSequence = []int64{0, -1, 1, 63, 64, -64, -65, 2147483647, -2147483648}

func TestReader_PrimitiveRoundTrip(t *testing.T) {
	data := writeFile(t, nil, primitiveSequence...)

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	require.Equal(t, primitiveSequence, readLongs(t, r))
	require.NoError(t, r.Err())
	require.Equal(t, schema.TypeLong, r.Schema().Type())
	require.Equal(t, format.CodecNull, r.Codec())
}

func TestReader_ReadPastEnd(t *testing.T) {
	data := writeFile(t, nil, 1)

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	_, err = r.Read()
	require.NoError(t, err)

	_, err = r.Read()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_RecordWithUnion(t *testing.T) {
	s := schema.MustParse(`{
		"type": "record",
		"name": "P",
		"fields": [
			{"name": "n", "type": "string"},
			{"name": "a", "type": ["null", "int"]}
		]
	}`)

	var sink bytes.Buffer

	w, err := NewWriter(&sink, s)
	require.NoError(t, err)

	require.NoError(t, w.Append(datum.Record(map[string]datum.Value{
		"n": datum.String("x"),
		"a": datum.Null(),
	})))
	require.NoError(t, w.Append(datum.Record(map[string]datum.Value{
		"n": datum.String("y"),
		"a": datum.Int(42),
	})))
	require.NoError(t, w.Close())

	r, err := NewReader(bytes.NewReader(sink.Bytes()))
	require.NoError(t, err)

	require.True(t, r.HasNext())
	first, err := r.Read()
	require.NoError(t, err)
	n, _ := first.Field("n")
	require.Equal(t, "x", n.String())
	a, _ := first.Field("a")
	require.True(t, a.IsNull())

	require.True(t, r.HasNext())
	second, err := r.Read()
	require.NoError(t, err)
	n, _ = second.Field("n")
	require.Equal(t, "y", n.String())
	a, _ = second.Field("a")
	require.Equal(t, int32(42), a.Int())

	require.False(t, r.HasNext())
}

func TestReader_Codecs(t *testing.T) {
	nullData := writeFile(t, nil, primitiveSequence...)

	for _, name := range []format.CodecName{format.CodecDeflate, format.CodecSnappy, format.CodecZstandard, format.CodecLZ4} {
		t.Run(string(name), func(t *testing.T) {
			data := writeFile(t, []WriterOption{WithCodec(name)}, primitiveSequence...)

			// Same items, different bytes between the framing markers.
			require.NotEqual(t, nullData, data)

			r, err := NewReader(bytes.NewReader(data))
			require.NoError(t, err)
			require.Equal(t, name, r.Codec())
			require.Equal(t, primitiveSequence, readLongs(t, r))
			require.NoError(t, r.Err())
		})
	}
}

func TestReader_SyncCorruption(t *testing.T) {
	var sink bytes.Buffer

	w, err := NewWriter(&sink, schema.MustParse(`"long"`))
	require.NoError(t, err)

	// Two explicit blocks.
	require.NoError(t, w.Append(datum.Long(1)))
	_, err = w.Sync()
	require.NoError(t, err)

	require.NoError(t, w.Append(datum.Long(2)))
	require.NoError(t, w.Close())

	// Flip one byte in the trailing sync of the last block.
	data := sink.Bytes()
	data[len(data)-1] ^= 0xff

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	// Block 1 reads fine.
	require.True(t, r.HasNext())
	v, err := r.Read()
	require.NoError(t, err)
	require.Equal(t, int64(1), v.Long())

	// Advancing past block 2's corrupt sync fails.
	require.False(t, r.HasNext())
	require.ErrorIs(t, r.Err(), errs.ErrSyncMarkerMismatch)
}

func TestReader_BlockIndependence(t *testing.T) {
	var sink bytes.Buffer

	w, err := NewWriter(&sink, schema.MustParse(`"long"`))
	require.NoError(t, err)

	var boundaries []int64

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, w.Append(datum.Long(i)))

		pos, err := w.Sync()
		require.NoError(t, err)

		boundaries = append(boundaries, pos)
	}

	require.NoError(t, w.Close())

	// Truncating at every block boundary yields a valid file decoding to the
	// item prefix.
	for i, pos := range boundaries {
		r, err := NewReader(bytes.NewReader(sink.Bytes()[:pos]))
		require.NoError(t, err)

		got := readLongs(t, r)
		require.NoError(t, r.Err())
		require.Len(t, got, i+1)

		for j, v := range got {
			require.Equal(t, int64(j+1), v)
		}
	}
}

func TestReader_BadMagic(t *testing.T) {
	data := writeFile(t, nil, 1)
	data[0] = 'X'

	_, err := NewReader(bytes.NewReader(data))
	require.ErrorIs(t, err, errs.ErrInvalidHeader)
}

func TestReader_TruncatedHeader(t *testing.T) {
	data := writeFile(t, nil, 1)

	_, err := NewReader(bytes.NewReader(data[:2]))
	require.ErrorIs(t, err, errs.ErrInvalidHeader)
}

func TestReader_MissingSchemaMetadata(t *testing.T) {
	// Hand-build a header with an empty metadata map.
	var sink bytes.Buffer
	sink.Write(format.Magic[:])
	sink.WriteByte(0x00) // empty map
	sink.Write(bytes.Repeat([]byte{0xab}, format.SyncSize))

	_, err := NewReader(bytes.NewReader(sink.Bytes()))
	require.ErrorIs(t, err, errs.ErrInvalidHeader)
}

func TestReader_UnknownCodec(t *testing.T) {
	data := writeFile(t, nil, 1)

	// Rewrite the codec metadata value in place: "null" -> "nope".
	idx := bytes.Index(data, []byte("null"))
	require.GreaterOrEqual(t, idx, 0)
	copy(data[idx:], []byte("nope"))

	_, err := NewReader(bytes.NewReader(data))
	require.ErrorIs(t, err, errs.ErrUnsupportedCodec)
}

func TestReader_CorruptSnappyCRC(t *testing.T) {
	data := writeFile(t, []WriterOption{WithCodec(format.CodecSnappy)}, 1, 2, 3)

	// The block payload sits between the header sync and the trailing sync
	// and ends with the 4-byte CRC-32C. Flip a byte of that CRC trailer.
	data[len(data)-format.SyncSize-3] ^= 0x01

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	require.False(t, r.HasNext())
	require.ErrorIs(t, r.Err(), errs.ErrCodecCorrupt)
}

func TestReader_ResolvedSchema(t *testing.T) {
	data := writeFile(t, nil, 1, 2, 3)

	r, err := NewReader(bytes.NewReader(data), WithReaderSchema(schema.MustParse(`"double"`)))
	require.NoError(t, err)

	var got []float64
	for r.HasNext() {
		v, err := r.Read()
		require.NoError(t, err)
		got = append(got, v.Double())
	}

	require.NoError(t, r.Err())
	require.Equal(t, []float64{1, 2, 3}, got)
}

func TestReader_IncompatibleReaderSchema(t *testing.T) {
	data := writeFile(t, nil, 1)

	_, err := NewReader(bytes.NewReader(data), WithReaderSchema(schema.MustParse(`"boolean"`)))
	require.ErrorIs(t, err, errs.ErrSchemaIncompatible)
}

func TestReader_CloseIdempotent(t *testing.T) {
	data := writeFile(t, nil, 1)

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	require.False(t, r.HasNext())
}
