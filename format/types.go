package format

// Magic is the 4-byte sequence every Avro object container file starts with:
// the ASCII bytes "Obj" followed by the format version 1.
var Magic = [4]byte{'O', 'b', 'j', 0x01}

// Container framing constants.
const (
	// MagicSize is the length of the file magic in bytes.
	MagicSize = 4

	// SyncSize is the length of the per-file sync marker in bytes.
	// The marker is generated once at header time and repeated verbatim
	// after every block.
	SyncSize = 16

	// DefaultSyncInterval is the default soft threshold, in bytes of
	// uncompressed data, at which the writer flushes the current block.
	// The datum being appended is always finished before the flush, so a
	// block may exceed this size by up to one encoded datum.
	DefaultSyncInterval = 16 * 1024

	// MaxBlockLength is the upper bound the reader accepts for a single
	// compressed block. Declared lengths outside [0, MaxBlockLength] are
	// treated as corruption rather than allocation requests.
	MaxBlockLength = 1 << 30
)

// Reserved metadata keys. Keys with the "avro." prefix are reserved by the
// container format; user metadata must use other names.
const (
	// MetaSchema holds the writer schema as UTF-8 JSON.
	MetaSchema = "avro.schema"

	// MetaCodec names the compression codec applied to block data.
	MetaCodec = "avro.codec"

	// MetaPrefix is the reserved namespace for container metadata keys.
	MetaPrefix = "avro."
)

// CodecName identifies a block compression codec by the string stored in the
// "avro.codec" metadata entry.
type CodecName string

const (
	// CodecNull stores block data uncompressed.
	CodecNull CodecName = "null"

	// CodecDeflate compresses blocks with raw DEFLATE (RFC 1951), without
	// zlib framing or checksum.
	CodecDeflate CodecName = "deflate"

	// CodecSnappy compresses blocks with the snappy block format followed
	// by a 4-byte big-endian CRC-32C of the uncompressed data.
	CodecSnappy CodecName = "snappy"

	// CodecZstandard compresses blocks with Zstandard frames.
	CodecZstandard CodecName = "zstandard"

	// CodecLZ4 compresses blocks with the LZ4 block format prefixed by a
	// 4-byte little-endian uncompressed length. This is an extension codec:
	// files using it are only readable by implementations that register it.
	CodecLZ4 CodecName = "lz4"
)

func (c CodecName) String() string {
	return string(c)
}
