package avrofile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/avrofile/datum"
	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/format"
	"github.com/arloliu/avrofile/ocf"
)

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.avro")

	w, err := CreateFile(path, `"long"`, ocf.WithCodec(format.CodecDeflate))
	require.NoError(t, err)

	values := []int64{10, -20, 30}
	for _, v := range values {
		require.NoError(t, w.Append(datum.Long(v)))
	}

	require.NoError(t, w.Close())

	r, err := OpenFile(path)
	require.NoError(t, err)
	defer r.Close()

	require.Equal(t, format.CodecDeflate, r.Codec())

	var got []int64
	for r.HasNext() {
		v, err := r.Read()
		require.NoError(t, err)
		got = append(got, v.Long())
	}

	require.NoError(t, r.Err())
	require.Equal(t, values, got)
}

func TestFileRoundTrip_ReaderSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ints.avro")

	w, err := CreateFile(path, `"int"`)
	require.NoError(t, err)
	require.NoError(t, w.Append(datum.Int(5)))
	require.NoError(t, w.Close())

	r, err := OpenFile(path, ocf.WithReaderSchema(MustParseSchema(`"double"`)))
	require.NoError(t, err)
	defer r.Close()

	v, err := r.Read()
	require.NoError(t, err)
	require.Equal(t, 5.0, v.Double())
}

func TestCreateFile_BadSchema(t *testing.T) {
	_, err := CreateFile(filepath.Join(t.TempDir(), "x.avro"), `"bogus"`)
	require.ErrorIs(t, err, errs.ErrSchemaParse)
}

func TestOpenFile_Missing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.avro"))
	require.Error(t, err)
}
