package compress

// NullCodec is the identity codec: block data is stored uncompressed.
//
// This codec is useful for:
//   - Small files where compression overhead outweighs the savings
//   - Data that is already compressed or not suitable for compression
//   - Baseline measurements when comparing codecs
type NullCodec struct{}

var _ Codec = (*NullCodec)(nil)

// NewNullCodec creates a new identity codec.
func NewNullCodec() NullCodec {
	return NullCodec{}
}

// Compress returns the input data directly without copying.
//
// Note: The returned slice shares the same underlying memory as the input.
// Callers should not modify the input data after calling this method if they
// plan to use the returned slice.
func (c NullCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input data directly without copying.
func (c NullCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
