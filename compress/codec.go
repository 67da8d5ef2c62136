package compress

import (
	"fmt"

	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/format"
)

// Compressor compresses one container-file block.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is owned by the caller; the null codec returns the
	//     input slice itself, other codecs allocate a new one
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses one container-file block.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original block
	// bytes.
	//
	// The input must have been produced by the matching Compress. Codecs with
	// an embedded checksum verify it here and return errs.ErrCodecCorrupt on
	// mismatch.
	//
	// Memory management:
	//   - Returned slice is owned by the caller; the null codec returns the
	//     input slice itself, other codecs allocate a new one
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CodecName]Codec{
	format.CodecNull:      NewNullCodec(),
	format.CodecDeflate:   NewDeflateCodec(),
	format.CodecSnappy:    NewSnappyCodec(),
	format.CodecZstandard: NewZstandardCodec(),
	format.CodecLZ4:       NewLZ4Codec(),
}

// Get retrieves the Codec registered under the given avro.codec name.
//
// Returns:
//   - Codec: Codec instance for the specified name
//   - error: errs.ErrUnsupportedCodec when no codec is registered under name
func Get(name format.CodecName) (Codec, error) {
	if codec, ok := builtinCodecs[name]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %q", errs.ErrUnsupportedCodec, string(name))
}

// Names returns the registered codec names.
func Names() []format.CodecName {
	names := make([]format.CodecName, 0, len(builtinCodecs))
	for name := range builtinCodecs {
		names = append(names, name)
	}

	return names
}
