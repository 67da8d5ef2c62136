//go:build cgo

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"

	"github.com/arloliu/avrofile/errs"
)

// zstdCompressionLevel is the libzstd level used for block compression.
// Level 3 is the upstream default and balances ratio against speed.
const zstdCompressionLevel = 3

// Compress compresses the input data into a single Zstandard frame using libzstd.
func (c ZstandardCodec) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, zstdCompressionLevel), nil
}

// Decompress decompresses a Zstandard frame using libzstd.
func (c ZstandardCodec) Decompress(data []byte) ([]byte, error) {
	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%w: zstandard: %v", errs.ErrCodecCorrupt, err)
	}

	return out, nil
}
