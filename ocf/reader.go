package ocf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/arloliu/avrofile/compress"
	"github.com/arloliu/avrofile/datum"
	"github.com/arloliu/avrofile/encoding"
	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/format"
	"github.com/arloliu/avrofile/internal/options"
	"github.com/arloliu/avrofile/schema"
)

// ReaderOption configures a Reader before the header is consumed.
type ReaderOption = options.Option[*Reader]

// WithReaderSchema resolves the file's writer schema against s: decoded
// values take the shape of s, applying Avro's promotion, field matching and
// default rules. Without this option values mirror the writer schema.
func WithReaderSchema(s schema.Schema) ReaderOption {
	return options.New(func(r *Reader) error {
		r.readerSchema = s
		return nil
	})
}

// Reader iterates the datums of an Avro object container file.
//
// Blocks advance lazily: HasNext loads and verifies the next block only when
// the current one is drained. A Reader is not safe for concurrent use.
type Reader struct {
	src io.Reader
	dec *encoding.Decoder

	sch          schema.Schema
	readerSchema schema.Schema
	plan         *datum.ReadPlan
	codec        compress.Codec
	codecName    format.CodecName
	meta         map[string][]byte
	syncMarker   [format.SyncSize]byte

	block     *encoding.Decoder
	remaining int64

	err    error
	closed bool
}

// NewReader opens a container file: it consumes and validates the header,
// parses the embedded schema and selects the block codec.
//
// Returns errs.ErrInvalidHeader on a bad magic or metadata map,
// errs.ErrSchemaParse on an invalid embedded schema, errs.ErrUnsupportedCodec
// on an unknown codec name, and errs.ErrSchemaIncompatible when a reader
// schema given via WithReaderSchema cannot be resolved. The source is closed
// on any construction failure if it implements io.Closer.
func NewReader(src io.Reader, opts ...ReaderOption) (*Reader, error) {
	r := &Reader{
		src: src,
		dec: encoding.NewDecoder(src),
	}

	if err := options.Apply(r, opts...); err != nil {
		r.releaseSource()
		return nil, err
	}

	if err := r.readHeader(); err != nil {
		r.releaseSource()
		return nil, err
	}

	plan, err := datum.NewResolvedReadPlan(r.sch, r.readerSchema)
	if err != nil {
		r.releaseSource()
		return nil, err
	}

	r.plan = plan

	return r, nil
}

// Schema returns the writer schema embedded in the file.
func (r *Reader) Schema() schema.Schema {
	return r.sch
}

// Codec returns the block codec name from the header.
func (r *Reader) Codec() format.CodecName {
	return r.codecName
}

// Meta returns the metadata value stored under key, or nil.
func (r *Reader) Meta(key string) []byte {
	return r.meta[key]
}

// Metadata returns the full header metadata map, including the reserved
// "avro." entries. The map is owned by the reader; callers must not mutate
// it.
func (r *Reader) Metadata() map[string][]byte {
	return r.meta
}

// HasNext reports whether another datum is available, advancing to the next
// block when the current one is drained. It returns false at end of file and
// on error; Err distinguishes the two.
func (r *Reader) HasNext() bool {
	if r.err != nil || r.closed {
		return false
	}

	for r.remaining == 0 {
		if !r.advance() {
			return false
		}
	}

	return true
}

// Read decodes the next datum. Calling Read without a preceding true HasNext
// returns io.EOF at end of file, or the error that stopped iteration.
func (r *Reader) Read() (datum.Value, error) {
	if !r.HasNext() {
		if r.err != nil {
			return datum.Value{}, r.err
		}

		return datum.Value{}, io.EOF
	}

	v, err := r.plan.Read(r.block)
	if err != nil {
		r.err = err
		return datum.Value{}, err
	}

	r.remaining--

	return v, nil
}

// Err returns the error that terminated iteration, or nil after a clean end
// of file.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the underlying source. It is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true
	r.block = nil
	r.remaining = 0

	return r.releaseSource()
}

func (r *Reader) releaseSource() error {
	closer, ok := r.src.(io.Closer)
	if !ok {
		return nil
	}

	return errors.Wrap(closer.Close(), "close source")
}

func headerErrorf(formatStr string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrInvalidHeader, fmt.Sprintf(formatStr, args...))
}

// readHeader consumes magic, metadata map and sync marker.
func (r *Reader) readHeader() error {
	magic, err := r.dec.ReadFixed(format.MagicSize)
	if err != nil {
		return headerErrorf("reading magic: %v", err)
	}

	if !bytes.Equal(magic, format.Magic[:]) {
		return headerErrorf("bad magic %x", magic)
	}

	r.meta = make(map[string][]byte)

	for {
		count, _, err := r.dec.ReadBlockCount()
		if err != nil {
			return headerErrorf("reading metadata map: %v", err)
		}

		if count == 0 {
			break
		}

		for i := int64(0); i < count; i++ {
			key, err := r.dec.ReadString()
			if err != nil {
				return headerErrorf("reading metadata key: %v", err)
			}

			value, err := r.dec.ReadBytes()
			if err != nil {
				return headerErrorf("reading metadata value %q: %v", key, err)
			}

			r.meta[key] = value
		}
	}

	schemaJSON, ok := r.meta[format.MetaSchema]
	if !ok {
		return headerErrorf("missing %q metadata", format.MetaSchema)
	}

	r.sch, err = schema.ParseBytes(schemaJSON)
	if err != nil {
		return err
	}

	codecName, ok := r.meta[format.MetaCodec]
	if !ok {
		// Absent codec metadata means null per the specification.
		codecName = []byte(format.CodecNull)
	}

	r.codecName = format.CodecName(codecName)

	r.codec, err = compress.Get(r.codecName)
	if err != nil {
		return err
	}

	sync, err := r.dec.ReadFixed(format.SyncSize)
	if err != nil {
		return headerErrorf("reading sync marker: %v", err)
	}

	copy(r.syncMarker[:], sync)

	return nil
}

// advance loads the next block: frame longs, compressed payload, trailing
// sync verification, decompression. Returns false at end of file or on
// error, recording the error in r.err.
func (r *Reader) advance() bool {
	count, err := r.dec.ReadLong()
	if err != nil {
		if err == io.EOF {
			// Clean end of file at a block boundary.
			return false
		}

		r.err = err

		return false
	}

	if count < 0 {
		r.err = fmt.Errorf("%w: negative block count %d", errs.ErrMalformedLength, count)
		return false
	}

	length, err := r.dec.ReadLong()
	if err != nil {
		r.err = err
		return false
	}

	if length < 0 || length > format.MaxBlockLength {
		r.err = fmt.Errorf("%w: block length %d outside [0,%d]", errs.ErrMalformedLength, length, format.MaxBlockLength)
		return false
	}

	compressed, err := r.dec.ReadFixed(int(length))
	if err != nil {
		r.err = err
		return false
	}

	sync, err := r.dec.ReadFixed(format.SyncSize)
	if err != nil {
		r.err = err
		return false
	}

	if !bytes.Equal(sync, r.syncMarker[:]) {
		r.err = fmt.Errorf("%w: block sync %x differs from header sync %x", errs.ErrSyncMarkerMismatch, sync, r.syncMarker[:])
		return false
	}

	data, err := r.codec.Decompress(compressed)
	if err != nil {
		r.err = err
		return false
	}

	r.block = encoding.NewDecoder(bytes.NewReader(data))
	r.remaining = count

	return true
}
