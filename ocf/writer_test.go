package ocf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/avrofile/datum"
	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/format"
	"github.com/arloliu/avrofile/schema"
)

func TestWriter_EmptyFile(t *testing.T) {
	var sink bytes.Buffer

	w, err := NewWriter(&sink, schema.MustParse(`"int"`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// Header only: magic, metadata map, sync marker.
	data := sink.Bytes()
	require.Equal(t, format.Magic[:], data[:format.MagicSize])
	require.Greater(t, len(data), format.MagicSize+format.SyncSize)

	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	require.False(t, r.HasNext())
	require.NoError(t, r.Err())
}

func TestWriter_AbandonedWritesNothing(t *testing.T) {
	var sink bytes.Buffer

	_, err := NewWriter(&sink, schema.MustParse(`"int"`))
	require.NoError(t, err)

	// No append, no close: the header is lazy, the sink stays untouched.
	require.Zero(t, sink.Len())
}

func TestWriter_IdempotentClose(t *testing.T) {
	var sink bytes.Buffer

	w, err := NewWriter(&sink, schema.MustParse(`"int"`))
	require.NoError(t, err)

	require.NoError(t, w.Append(datum.Int(1)))
	require.NoError(t, w.Close())

	size := sink.Len()
	require.NoError(t, w.Close())
	require.Equal(t, size, sink.Len())
}

func TestWriter_AppendAfterClose(t *testing.T) {
	var sink bytes.Buffer

	w, err := NewWriter(&sink, schema.MustParse(`"int"`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.ErrorIs(t, w.Append(datum.Int(1)), errs.ErrWriterClosed)

	_, err = w.Sync()
	require.ErrorIs(t, err, errs.ErrWriterClosed)
}

func TestWriter_FailedAppendLeavesBlockIntact(t *testing.T) {
	var sink bytes.Buffer

	s := schema.MustParse(`"long"`)

	w, err := NewWriter(&sink, s)
	require.NoError(t, err)

	require.NoError(t, w.Append(datum.Long(1)))
	require.ErrorIs(t, w.Append(datum.String("wrong")), errs.ErrSchemaMismatch)
	require.NoError(t, w.Append(datum.Long(2)))
	require.NoError(t, w.Close())

	r, err := NewReader(bytes.NewReader(sink.Bytes()))
	require.NoError(t, err)

	var got []int64
	for r.HasNext() {
		v, err := r.Read()
		require.NoError(t, err)
		got = append(got, v.Long())
	}

	require.NoError(t, r.Err())
	require.Equal(t, []int64{1, 2}, got)
}

func TestWriter_SyncReturnsBlockBoundary(t *testing.T) {
	var sink bytes.Buffer

	w, err := NewWriter(&sink, schema.MustParse(`"int"`))
	require.NoError(t, err)

	require.NoError(t, w.Append(datum.Int(1)))
	require.NoError(t, w.Append(datum.Int(2)))

	pos, err := w.Sync()
	require.NoError(t, err)
	require.Equal(t, int64(sink.Len()), pos)

	require.NoError(t, w.Append(datum.Int(3)))
	require.NoError(t, w.Close())

	// Truncating at the sync position yields a valid shorter file holding
	// only the first block's items.
	r, err := NewReader(bytes.NewReader(sink.Bytes()[:pos]))
	require.NoError(t, err)

	var got []int32
	for r.HasNext() {
		v, err := r.Read()
		require.NoError(t, err)
		got = append(got, v.Int())
	}

	require.NoError(t, r.Err())
	require.Equal(t, []int32{1, 2}, got)
}

func TestWriter_SyncIntervalFlushes(t *testing.T) {
	var sink bytes.Buffer

	w, err := NewWriter(&sink, schema.MustParse(`"string"`), WithSyncInterval(64))
	require.NoError(t, err)

	payload := datum.String(string(bytes.Repeat([]byte{'a'}, 40)))

	require.NoError(t, w.Append(payload))
	headerOnly := sink.Len() // below threshold: header written, block still pending

	require.NoError(t, w.Append(payload)) // crosses 64 bytes, flushes
	require.Greater(t, sink.Len(), headerOnly)
	require.NoError(t, w.Close())

	r, err := NewReader(bytes.NewReader(sink.Bytes()))
	require.NoError(t, err)

	count := 0
	for r.HasNext() {
		_, err := r.Read()
		require.NoError(t, err)
		count++
	}

	require.Equal(t, 2, count)
}

func TestWriter_InvalidOptions(t *testing.T) {
	var sink bytes.Buffer

	_, err := NewWriter(&sink, schema.MustParse(`"int"`), WithSyncInterval(0))
	require.Error(t, err)

	_, err = NewWriter(&sink, schema.MustParse(`"int"`), WithCodec("brotli"))
	require.ErrorIs(t, err, errs.ErrUnsupportedCodec)

	_, err = NewWriter(&sink, schema.MustParse(`"int"`), WithMetadata(map[string][]byte{"avro.custom": nil}))
	require.Error(t, err)
}

func TestWriter_UserMetadataRoundTrip(t *testing.T) {
	var sink bytes.Buffer

	w, err := NewWriter(&sink, schema.MustParse(`"int"`), WithMetadata(map[string][]byte{
		"app.version": []byte("1.2.3"),
	}))
	require.NoError(t, err)
	require.NoError(t, w.Append(datum.Int(1)))
	require.NoError(t, w.Close())

	r, err := NewReader(bytes.NewReader(sink.Bytes()))
	require.NoError(t, err)

	require.Equal(t, []byte("1.2.3"), r.Meta("app.version"))
	require.Equal(t, []byte("null"), r.Meta(format.MetaCodec))
	require.Nil(t, r.Meta("absent"))
}
