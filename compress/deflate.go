package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"

	"github.com/arloliu/avrofile/errs"
)

// flateWriterPool pools flate.Writer instances for reuse. A flate writer
// allocates sizable internal state; Reset makes reuse safe and cheap.
var flateWriterPool = sync.Pool{
	New: func() any {
		w, err := flate.NewWriter(io.Discard, flate.DefaultCompression)
		if err != nil {
			// DefaultCompression is a valid level
			panic(fmt.Sprintf("failed to create flate writer for pool: %v", err))
		}
		return w
	},
}

// DeflateCodec implements the standard "deflate" codec: raw DEFLATE streams
// (RFC 1951) with no zlib wrapper or checksum.
type DeflateCodec struct{}

var _ Codec = (*DeflateCodec)(nil)

// NewDeflateCodec creates a new deflate codec.
func NewDeflateCodec() DeflateCodec {
	return DeflateCodec{}
}

// Compress compresses the input data as a raw DEFLATE stream.
func (c DeflateCodec) Compress(data []byte) ([]byte, error) {
	var out bytes.Buffer

	fw, _ := flateWriterPool.Get().(*flate.Writer)
	defer flateWriterPool.Put(fw)

	fw.Reset(&out)

	if _, err := fw.Write(data); err != nil {
		return nil, err
	}

	if err := fw.Close(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// Decompress inflates a raw DEFLATE stream.
func (c DeflateCodec) Decompress(data []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()

	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("%w: deflate: %v", errs.ErrCodecCorrupt, err)
	}

	return out, nil
}
