package compress

// ZstandardCodec implements the "zstandard" codec added in Avro 1.9: each
// block is a single Zstandard frame.
//
// This codec suits scenarios where compression ratio matters more than
// compression speed:
//   - Cold storage and archival of container files
//   - Network transmission where bandwidth is limited
//   - Files written once and read rarely
//
// Two implementations are selected at build time: cgo builds use the libzstd
// binding, pure-Go builds use the klauspost zstd port. The frames they
// produce are interchangeable.
type ZstandardCodec struct{}

var _ Codec = (*ZstandardCodec)(nil)

// NewZstandardCodec creates a new zstandard codec with default settings.
func NewZstandardCodec() ZstandardCodec {
	return ZstandardCodec{}
}
