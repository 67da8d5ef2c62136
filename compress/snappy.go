package compress

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/klauspost/compress/snappy"

	"github.com/arloliu/avrofile/errs"
)

// castagnoli is the CRC-32C polynomial table used by the snappy codec's
// block trailer.
var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// snappyTrailerSize is the length of the big-endian CRC-32C appended after
// the compressed payload.
const snappyTrailerSize = 4

// SnappyCodec implements the standard "snappy" codec: each block is a snappy
// block-format compression of the data followed by a 4-byte big-endian
// CRC-32C of the UNCOMPRESSED data.
//
// The checksum covers the uncompressed bytes, so corruption introduced by a
// faulty decompression round-trip is caught as well as bit rot in the
// compressed payload.
type SnappyCodec struct{}

var _ Codec = (*SnappyCodec)(nil)

// NewSnappyCodec creates a new snappy codec.
func NewSnappyCodec() SnappyCodec {
	return SnappyCodec{}
}

// Compress compresses the input data and appends the CRC-32C trailer.
func (c SnappyCodec) Compress(data []byte) ([]byte, error) {
	compressed := snappy.Encode(nil, data)

	out := make([]byte, len(compressed)+snappyTrailerSize)
	copy(out, compressed)
	binary.BigEndian.PutUint32(out[len(compressed):], crc32.Checksum(data, castagnoli))

	return out, nil
}

// Decompress decompresses the payload and verifies the CRC-32C trailer
// against the decompressed result.
func (c SnappyCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) < snappyTrailerSize {
		return nil, fmt.Errorf("%w: snappy block shorter than checksum trailer", errs.ErrCodecCorrupt)
	}

	payload := data[:len(data)-snappyTrailerSize]
	want := binary.BigEndian.Uint32(data[len(data)-snappyTrailerSize:])

	out, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: snappy: %v", errs.ErrCodecCorrupt, err)
	}

	if got := crc32.Checksum(out, castagnoli); got != want {
		return nil, fmt.Errorf("%w: snappy CRC mismatch: got %08x want %08x", errs.ErrCodecCorrupt, got, want)
	}

	return out, nil
}
