package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/format"
)

var samplePayloads = [][]byte{
	nil,
	{},
	[]byte("hello avro"),
	bytes.Repeat([]byte("abcdefgh"), 1024),
	{0x00, 0xff, 0x80, 0x7f},
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, name := range Names() {
		t.Run(string(name), func(t *testing.T) {
			codec, err := Get(name)
			require.NoError(t, err)

			for _, payload := range samplePayloads {
				compressed, err := codec.Compress(payload)
				require.NoError(t, err)

				out, err := codec.Decompress(compressed)
				require.NoError(t, err)
				require.Equal(t, len(payload), len(out))
				require.True(t, bytes.Equal(payload, out))
			}
		})
	}
}

func TestGet_UnknownName(t *testing.T) {
	_, err := Get("brotli")
	require.ErrorIs(t, err, errs.ErrUnsupportedCodec)
}

func TestNames_CoversStandardCodecs(t *testing.T) {
	names := Names()
	require.Contains(t, names, format.CodecNull)
	require.Contains(t, names, format.CodecDeflate)
	require.Contains(t, names, format.CodecSnappy)
	require.Contains(t, names, format.CodecZstandard)
	require.Contains(t, names, format.CodecLZ4)
}

func TestNullCodec_Identity(t *testing.T) {
	codec := NewNullCodec()

	payload := []byte("unchanged")

	compressed, err := codec.Compress(payload)
	require.NoError(t, err)
	require.Equal(t, payload, compressed)
}

func TestDeflateCodec_RawStream(t *testing.T) {
	codec := NewDeflateCodec()

	compressed, err := codec.Compress([]byte("data"))
	require.NoError(t, err)

	// Raw DEFLATE, not zlib: no 0x78 method/flags header byte pair.
	require.NotEqual(t, byte(0x78), compressed[0])
}

func TestDeflateCodec_CorruptStream(t *testing.T) {
	codec := NewDeflateCodec()

	_, err := codec.Decompress([]byte{0xde, 0xad, 0xbe, 0xef})
	require.ErrorIs(t, err, errs.ErrCodecCorrupt)
}

func TestSnappyCodec_CRCVerified(t *testing.T) {
	codec := NewSnappyCodec()

	compressed, err := codec.Compress(bytes.Repeat([]byte("payload"), 32))
	require.NoError(t, err)

	// Flip a bit in the trailing CRC-32C.
	compressed[len(compressed)-1] ^= 0x01

	_, err = codec.Decompress(compressed)
	require.ErrorIs(t, err, errs.ErrCodecCorrupt)
}

func TestSnappyCodec_TruncatedTrailer(t *testing.T) {
	codec := NewSnappyCodec()

	_, err := codec.Decompress([]byte{0x01, 0x02})
	require.ErrorIs(t, err, errs.ErrCodecCorrupt)
}

func TestLZ4Codec_IncompressibleStoredRaw(t *testing.T) {
	codec := NewLZ4Codec()

	// Four unique bytes cannot be LZ4-compressed; the codec stores them raw
	// behind the size prefix.
	payload := []byte{0x01, 0x02, 0x03, 0x04}

	compressed, err := codec.Compress(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload)+4, len(compressed))

	out, err := codec.Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestLZ4Codec_TruncatedPrefix(t *testing.T) {
	codec := NewLZ4Codec()

	_, err := codec.Decompress([]byte{0x01})
	require.ErrorIs(t, err, errs.ErrCodecCorrupt)
}
