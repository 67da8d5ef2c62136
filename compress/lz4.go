package compress

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/avrofile/errs"
)

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// lz4PrefixSize is the length of the little-endian uncompressed-size prefix.
const lz4PrefixSize = 4

// LZ4Codec implements the nonstandard "lz4" extension codec: a 4-byte
// little-endian uncompressed length followed by an LZ4 block.
//
// When the data is incompressible the raw bytes are stored after the prefix;
// the reader detects this case by the payload length equaling the declared
// uncompressed length.
//
// Files written with this codec are only readable by implementations that
// register it; interoperable files should use the standard codecs.
type LZ4Codec struct{}

var _ Codec = (*LZ4Codec)(nil)

// NewLZ4Codec creates a new LZ4 extension codec.
func NewLZ4Codec() LZ4Codec {
	return LZ4Codec{}
}

// Compress compresses the input data as a size-prefixed LZ4 block.
func (c LZ4Codec) Compress(data []byte) ([]byte, error) {
	dst := make([]byte, lz4PrefixSize+lz4.CompressBlockBound(len(data)))
	binary.LittleEndian.PutUint32(dst[:lz4PrefixSize], uint32(len(data))) //nolint:gosec

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[lz4PrefixSize:])
	if err != nil {
		return nil, err
	}

	if n == 0 || n >= len(data) {
		// Incompressible: store raw so the payload length equals the prefix.
		out := make([]byte, lz4PrefixSize+len(data))
		copy(out, dst[:lz4PrefixSize])
		copy(out[lz4PrefixSize:], data)

		return out, nil
	}

	return dst[:lz4PrefixSize+n], nil
}

// Decompress decompresses a size-prefixed LZ4 block.
func (c LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) < lz4PrefixSize {
		return nil, fmt.Errorf("%w: lz4 block shorter than size prefix", errs.ErrCodecCorrupt)
	}

	size := binary.LittleEndian.Uint32(data[:lz4PrefixSize])
	payload := data[lz4PrefixSize:]

	if uint32(len(payload)) == size {
		// Stored raw by Compress on incompressible input.
		out := make([]byte, size)
		copy(out, payload)

		return out, nil
	}

	out := make([]byte, size)

	n, err := lz4.UncompressBlock(payload, out)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", errs.ErrCodecCorrupt, err)
	}

	if n != int(size) {
		return nil, fmt.Errorf("%w: lz4 size mismatch: got %d want %d", errs.ErrCodecCorrupt, n, size)
	}

	return out, nil
}
