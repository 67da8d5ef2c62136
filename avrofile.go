// Package avrofile implements the Avro object container file format: a
// self-describing, block-oriented binary container for typed values.
//
// The format couples two pieces that must agree exactly: the schema model
// with its canonical JSON projection (package schema), and the block-framed
// container codec with pluggable compression (package ocf). Values cross the
// API as the tagged datum.Value variant; mapping native application types
// onto that variant is the application's concern, the core does no
// reflection.
//
// # Writing a file
//
//	w, _ := avrofile.CreateFile("events.avro", `"long"`,
//	    ocf.WithCodec(format.CodecDeflate))
//	_ = w.Append(datum.Long(1))
//	_ = w.Append(datum.Long(2))
//	_ = w.Close()
//
// # Reading it back
//
//	r, _ := avrofile.OpenFile("events.avro")
//	defer r.Close()
//	for r.HasNext() {
//	    v, _ := r.Read()
//	    fmt.Println(v.Long())
//	}
//
// # Package Structure
//
// This package provides convenience wrappers over the ocf and schema
// packages for the common file-based cases. For fine-grained control, for
// example custom sinks, reader schemas or user metadata, use those packages
// directly.
package avrofile

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/arloliu/avrofile/ocf"
	"github.com/arloliu/avrofile/schema"
)

// ParseSchema parses an Avro schema JSON document.
func ParseSchema(text string) (schema.Schema, error) {
	return schema.Parse(text)
}

// MustParseSchema parses a schema document and panics on error. Intended for
// schemas known valid at compile time.
func MustParseSchema(text string) schema.Schema {
	return schema.MustParse(text)
}

// NewWriter creates a container file writer over an arbitrary sink. The
// schema is given as JSON text.
func NewWriter(sink io.Writer, schemaJSON string, opts ...ocf.WriterOption) (*ocf.Writer, error) {
	s, err := schema.Parse(schemaJSON)
	if err != nil {
		return nil, err
	}

	return ocf.NewWriter(sink, s, opts...)
}

// CreateFile creates (or truncates) the file at path and returns a container
// writer over it. The file is closed by the writer's Close.
func CreateFile(path string, schemaJSON string, opts ...ocf.WriterOption) (*ocf.Writer, error) {
	s, err := schema.Parse(schemaJSON)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}

	w, err := ocf.NewWriter(f, s, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return w, nil
}

// NewReader opens a container file from an arbitrary source.
func NewReader(src io.Reader, opts ...ocf.ReaderOption) (*ocf.Reader, error) {
	return ocf.NewReader(src, opts...)
}

// OpenFile opens the container file at path. The file is closed by the
// reader's Close.
func OpenFile(path string, opts ...ocf.ReaderOption) (*ocf.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	// NewReader closes the source itself on a construction failure.
	return ocf.NewReader(f, opts...)
}
