package ocf

import (
	"crypto/rand"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/arloliu/avrofile/compress"
	"github.com/arloliu/avrofile/datum"
	"github.com/arloliu/avrofile/encoding"
	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/format"
	"github.com/arloliu/avrofile/internal/options"
	"github.com/arloliu/avrofile/internal/pool"
	"github.com/arloliu/avrofile/schema"
)

// WriterOption configures a Writer before any bytes are produced.
type WriterOption = options.Option[*Writer]

// WithCodec selects the block compression codec stored under "avro.codec".
// The default is null.
func WithCodec(name format.CodecName) WriterOption {
	return options.New(func(w *Writer) error {
		codec, err := compress.Get(name)
		if err != nil {
			return err
		}

		w.codecName = name
		w.codec = codec

		return nil
	})
}

// WithSyncInterval sets the soft block flush threshold in bytes of
// uncompressed data. The datum being appended always completes before the
// flush, so a block can exceed the interval by one encoded datum. The default
// is format.DefaultSyncInterval.
func WithSyncInterval(n int) WriterOption {
	return options.New(func(w *Writer) error {
		if n <= 0 {
			return errors.Errorf("sync interval must be positive, got %d", n)
		}

		w.syncInterval = n

		return nil
	})
}

// WithMetadata adds user metadata entries to the file header. Keys in the
// reserved "avro." namespace are rejected.
func WithMetadata(meta map[string][]byte) WriterOption {
	return options.New(func(w *Writer) error {
		for k, v := range meta {
			if strings.HasPrefix(k, format.MetaPrefix) {
				return errors.Errorf("metadata key %q is in the reserved %q namespace", k, format.MetaPrefix)
			}

			w.metadata[k] = v
		}

		return nil
	})
}

// Writer appends datums to an Avro object container file.
//
// The header is written lazily on the first Append, Sync or Close, so a
// Writer that is constructed and abandoned leaves the sink untouched. A
// Writer is not safe for concurrent use.
type Writer struct {
	sink  io.Writer
	sch   schema.Schema
	plan  *datum.WritePlan
	codec compress.Codec

	codecName    format.CodecName
	syncInterval int
	metadata     map[string][]byte
	syncMarker   [format.SyncSize]byte

	buf   *pool.ByteBuffer
	enc   *encoding.Encoder
	count int64

	written       int64
	headerWritten bool
	closed        bool
}

// NewWriter creates a container file writer over sink for the given schema.
//
// The sync marker is drawn from crypto/rand once per file. If sink implements
// io.Closer it is closed by Close.
func NewWriter(sink io.Writer, s schema.Schema, opts ...WriterOption) (*Writer, error) {
	plan, err := datum.NewWritePlan(s)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		sink:         sink,
		sch:          s,
		plan:         plan,
		codec:        compress.NewNullCodec(),
		codecName:    format.CodecNull,
		syncInterval: format.DefaultSyncInterval,
		metadata:     make(map[string][]byte),
		buf:          pool.GetBlockBuffer(),
	}
	w.enc = encoding.NewEncoder(w.buf)

	if err := options.Apply(w, opts...); err != nil {
		pool.PutBlockBuffer(w.buf)
		return nil, err
	}

	if _, err := rand.Read(w.syncMarker[:]); err != nil {
		pool.PutBlockBuffer(w.buf)
		return nil, errors.Wrap(err, "generate sync marker")
	}

	return w, nil
}

// Schema returns the writer schema.
func (w *Writer) Schema() schema.Schema {
	return w.sch
}

// Append encodes one datum into the current block, flushing the block once
// buffered bytes reach the sync interval.
//
// A value that does not match the schema fails with errs.ErrSchemaMismatch
// and leaves the block exactly as it was before the call; already-flushed
// blocks are never affected by a failed append.
func (w *Writer) Append(v datum.Value) error {
	if w.closed {
		return errs.ErrWriterClosed
	}

	if err := w.ensureHeader(); err != nil {
		return err
	}

	mark := w.buf.Len()

	if err := w.plan.Write(w.enc, v); err != nil {
		w.buf.B = w.buf.B[:mark]
		return err
	}

	w.count++

	if w.buf.Len() >= w.syncInterval {
		return w.flushBlock()
	}

	return nil
}

// Sync flushes the pending block and returns the number of bytes written to
// the sink so far. The returned position is a valid block boundary: a file
// truncated there decodes to the items appended before the call.
func (w *Writer) Sync() (int64, error) {
	if w.closed {
		return w.written, errs.ErrWriterClosed
	}

	if err := w.ensureHeader(); err != nil {
		return w.written, err
	}

	if err := w.flushBlock(); err != nil {
		return w.written, err
	}

	return w.written, nil
}

// Close flushes pending data and releases the sink. It is idempotent; any
// call after the first is a no-op. Operations on a closed writer fail with
// errs.ErrWriterClosed.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	// The sink must be released on every exit path.
	w.closed = true
	defer func() {
		pool.PutBlockBuffer(w.buf)
		w.buf = nil
		w.enc = nil
	}()

	if err := w.ensureHeader(); err != nil {
		w.closeSink()
		return err
	}

	if err := w.flushBlock(); err != nil {
		w.closeSink()
		return err
	}

	return w.closeSink()
}

func (w *Writer) closeSink() error {
	closer, ok := w.sink.(io.Closer)
	if !ok {
		return nil
	}

	return errors.Wrap(closer.Close(), "close sink")
}

// ensureHeader writes the file header exactly once: magic, metadata map with
// the schema and codec entries, then the sync marker.
func (w *Writer) ensureHeader() error {
	if w.headerWritten {
		return nil
	}

	hdr := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(hdr)

	enc := encoding.NewEncoder(hdr)
	enc.WriteFixed(format.Magic[:])

	meta := make(map[string][]byte, len(w.metadata)+2)
	for k, v := range w.metadata {
		meta[k] = v
	}
	meta[format.MetaSchema] = []byte(schema.Canonical(w.sch))
	meta[format.MetaCodec] = []byte(w.codecName)

	// One map block in sorted key order keeps headers deterministic.
	enc.WriteBlockCount(int64(len(meta)))

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		enc.WriteString(k)
		enc.WriteBytes(meta[k])
	}

	enc.WriteBlockCount(0)
	enc.WriteFixed(w.syncMarker[:])

	n, err := hdr.WriteTo(w.sink)
	w.written += n

	if err != nil {
		return errors.Wrap(err, "write header")
	}

	w.headerWritten = true

	return nil
}

// flushBlock compresses and emits the accumulated block. With no pending
// datums it is a no-op.
func (w *Writer) flushBlock() error {
	if w.count == 0 {
		return nil
	}

	compressed, err := w.codec.Compress(w.buf.Bytes())
	if err != nil {
		return errors.Wrap(err, "compress block")
	}

	frame := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(frame)

	enc := encoding.NewEncoder(frame)
	enc.WriteLong(w.count)
	enc.WriteLong(int64(len(compressed)))
	enc.WriteFixed(compressed)
	enc.WriteFixed(w.syncMarker[:])

	n, err := frame.WriteTo(w.sink)
	w.written += n

	if err != nil {
		return errors.Wrap(err, "write block")
	}

	w.buf.Reset()
	w.count = 0

	return nil
}
