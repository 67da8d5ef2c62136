package datum

import (
	"fmt"
	"sort"
	"sync"

	"github.com/arloliu/avrofile/encoding"
	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/schema"
)

// writeFunc encodes one value at the given field path.
type writeFunc func(enc *encoding.Encoder, v Value, path string) error

// WritePlan encodes values under one writer schema.
//
// The plan is a tree of handlers compiled once per schema; compilation
// validates record field defaults. A compiled plan is immutable and safe for
// concurrent use with distinct encoders.
type WritePlan struct {
	root   writeFunc
	schema schema.Schema
}

// NewWritePlan compiles a write plan for the given schema.
func NewWritePlan(s schema.Schema) (*WritePlan, error) {
	root, err := compileWrite(s, "")
	if err != nil {
		return nil, err
	}

	return &WritePlan{root: root, schema: s}, nil
}

// Schema returns the schema the plan was compiled for.
func (p *WritePlan) Schema() schema.Schema {
	return p.schema
}

// Write encodes v onto enc.
//
// Returns errs.ErrSchemaMismatch when the value cannot be placed under the
// schema: a kind mismatch, an unknown enum symbol, a fixed of the wrong
// length, a missing record field with no default, or a value fitting no
// union branch. The error message carries the offending field path.
func (p *WritePlan) Write(enc *encoding.Encoder, v Value) error {
	return p.root(enc, v, "")
}

func mismatchErrorf(path string, format string, args ...any) error {
	if path == "" {
		path = "<root>"
	}

	return fmt.Errorf("%w: %s at %s", errs.ErrSchemaMismatch, fmt.Sprintf(format, args...), path)
}

// compileWrite builds the handler tree for one schema node. path is the
// static field path used in error messages.
func compileWrite(s schema.Schema, path string) (writeFunc, error) {
	// A back-reference compiles its target on first use, so a record that
	// refers to itself does not recurse without end.
	if ref, ok := s.(*schema.RefSchema); ok {
		var once sync.Once
		var fn writeFunc
		var err error

		return func(enc *encoding.Encoder, v Value, p string) error {
			once.Do(func() { fn, err = compileWrite(ref.Target(), path) })
			if err != nil {
				return err
			}

			return fn(enc, v, p)
		}, nil
	}

	switch v := schema.Resolve(s).(type) {
	case *schema.PrimitiveSchema:
		return compileWritePrimitive(v.Type()), nil
	case *schema.RecordSchema:
		return compileWriteRecord(v, path)
	case *schema.EnumSchema:
		return compileWriteEnum(v), nil
	case *schema.ArraySchema:
		return compileWriteArray(v, path)
	case *schema.MapSchema:
		return compileWriteMap(v, path)
	case *schema.UnionSchema:
		return compileWriteUnion(v, path)
	case *schema.FixedSchema:
		return compileWriteFixed(v), nil
	default:
		return nil, mismatchErrorf(path, "unsupported schema type %q", s.Type())
	}
}

func compileWritePrimitive(typ schema.Type) writeFunc {
	switch typ {
	case schema.TypeNull:
		return func(_ *encoding.Encoder, v Value, path string) error {
			if v.kind != KindNull {
				return mismatchErrorf(path, "expected null, got %s", v.kind)
			}

			return nil
		}
	case schema.TypeBoolean:
		return func(enc *encoding.Encoder, v Value, path string) error {
			if v.kind != KindBoolean {
				return mismatchErrorf(path, "expected boolean, got %s", v.kind)
			}

			enc.WriteBoolean(v.Boolean())

			return nil
		}
	case schema.TypeInt:
		return func(enc *encoding.Encoder, v Value, path string) error {
			if v.kind != KindInt {
				return mismatchErrorf(path, "expected int, got %s", v.kind)
			}

			enc.WriteInt(v.Int())

			return nil
		}
	case schema.TypeLong:
		return func(enc *encoding.Encoder, v Value, path string) error {
			if v.kind != KindLong {
				return mismatchErrorf(path, "expected long, got %s", v.kind)
			}

			enc.WriteLong(v.Long())

			return nil
		}
	case schema.TypeFloat:
		return func(enc *encoding.Encoder, v Value, path string) error {
			if v.kind != KindFloat {
				return mismatchErrorf(path, "expected float, got %s", v.kind)
			}

			enc.WriteFloat(v.Float())

			return nil
		}
	case schema.TypeDouble:
		return func(enc *encoding.Encoder, v Value, path string) error {
			if v.kind != KindDouble {
				return mismatchErrorf(path, "expected double, got %s", v.kind)
			}

			enc.WriteDouble(v.Double())

			return nil
		}
	case schema.TypeBytes:
		return func(enc *encoding.Encoder, v Value, path string) error {
			if v.kind != KindBytes {
				return mismatchErrorf(path, "expected bytes, got %s", v.kind)
			}

			enc.WriteBytes(v.raw)

			return nil
		}
	case schema.TypeString:
		return func(enc *encoding.Encoder, v Value, path string) error {
			if v.kind != KindString {
				return mismatchErrorf(path, "expected string, got %s", v.kind)
			}

			enc.WriteString(v.str)

			return nil
		}
	default:
		return func(_ *encoding.Encoder, _ Value, path string) error {
			return mismatchErrorf(path, "unsupported primitive %q", typ)
		}
	}
}

// fieldWriter pairs a record field with its compiled handler and the value
// substituted when the field is absent from the input.
type fieldWriter struct {
	name       string
	write      writeFunc
	hasDefault bool
	def        Value
	path       string
}

func compileWriteRecord(rec *schema.RecordSchema, path string) (writeFunc, error) {
	fields := make([]fieldWriter, 0, len(rec.Fields()))

	for _, f := range rec.Fields() {
		fieldPath := joinPath(path, f.Name())

		write, err := compileWrite(f.Schema(), fieldPath)
		if err != nil {
			return nil, err
		}

		fw := fieldWriter{name: f.Name(), write: write, path: fieldPath}

		if f.HasDefault() {
			def, err := valueFromDefault(f.Schema(), f.Default())
			if err != nil {
				return nil, mismatchErrorf(fieldPath, "invalid field default: %v", err)
			}

			fw.hasDefault = true
			fw.def = def
		}

		fields = append(fields, fw)
	}

	return func(enc *encoding.Encoder, v Value, path string) error {
		if v.kind != KindRecord {
			return mismatchErrorf(path, "expected record %s, got %s", rec.FullName(), v.kind)
		}

		for i := range fields {
			fw := &fields[i]

			fv, ok := v.entries[fw.name]
			if !ok {
				if !fw.hasDefault {
					return mismatchErrorf(fw.path, "missing field with no default")
				}

				fv = fw.def
			}

			if err := fw.write(enc, fv, fw.path); err != nil {
				return err
			}
		}

		return nil
	}, nil
}

func compileWriteEnum(enum *schema.EnumSchema) writeFunc {
	return func(enc *encoding.Encoder, v Value, path string) error {
		if v.kind != KindEnum {
			return mismatchErrorf(path, "expected enum %s, got %s", enum.FullName(), v.kind)
		}

		idx := enum.SymbolIndex(v.str)
		if idx < 0 {
			return mismatchErrorf(path, "unknown symbol %q for enum %s", v.str, enum.FullName())
		}

		enc.WriteLong(int64(idx))

		return nil
	}
}

func compileWriteArray(arr *schema.ArraySchema, path string) (writeFunc, error) {
	itemPath := path + "[]"

	writeItem, err := compileWrite(arr.Items(), itemPath)
	if err != nil {
		return nil, err
	}

	return func(enc *encoding.Encoder, v Value, path string) error {
		if v.kind != KindArray {
			return mismatchErrorf(path, "expected array, got %s", v.kind)
		}

		if len(v.list) > 0 {
			enc.WriteBlockCount(int64(len(v.list)))

			for _, item := range v.list {
				if err := writeItem(enc, item, itemPath); err != nil {
					return err
				}
			}
		}

		enc.WriteBlockCount(0)

		return nil
	}, nil
}

func compileWriteMap(m *schema.MapSchema, path string) (writeFunc, error) {
	valuePath := path + "{}"

	writeValue, err := compileWrite(m.Values(), valuePath)
	if err != nil {
		return nil, err
	}

	return func(enc *encoding.Encoder, v Value, path string) error {
		if v.kind != KindMap {
			return mismatchErrorf(path, "expected map, got %s", v.kind)
		}

		if len(v.entries) > 0 {
			enc.WriteBlockCount(int64(len(v.entries)))

			// Sorted key order keeps output deterministic.
			keys := make([]string, 0, len(v.entries))
			for k := range v.entries {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				enc.WriteString(k)

				if err := writeValue(enc, v.entries[k], valuePath); err != nil {
					return err
				}
			}
		}

		enc.WriteBlockCount(0)

		return nil
	}, nil
}

func compileWriteUnion(union *schema.UnionSchema, path string) (writeFunc, error) {
	branches := union.Branches()

	branchFns := make([]writeFunc, len(branches))
	for i, branch := range branches {
		fn, err := compileWrite(branch, path)
		if err != nil {
			return nil, err
		}

		branchFns[i] = fn
	}

	return func(enc *encoding.Encoder, v Value, path string) error {
		var idx int
		var inner Value

		if v.kind == KindUnion {
			idx = v.union.branch
			inner = v.union.value

			if idx < 0 || idx >= len(branches) {
				return mismatchErrorf(path, "union branch index %d out of range [0,%d)", idx, len(branches))
			}
		} else {
			idx = selectBranch(branches, v)
			if idx < 0 {
				return mismatchErrorf(path, "value %s fits no union branch", v.kind)
			}

			inner = v
		}

		enc.WriteLong(int64(idx))

		return branchFns[idx](enc, inner, path)
	}, nil
}

func compileWriteFixed(fixed *schema.FixedSchema) writeFunc {
	size := fixed.Size()

	return func(enc *encoding.Encoder, v Value, path string) error {
		if v.kind != KindFixed && v.kind != KindBytes {
			return mismatchErrorf(path, "expected fixed %s, got %s", fixed.FullName(), v.kind)
		}

		if len(v.raw) != size {
			return mismatchErrorf(path, "fixed %s requires %d bytes, got %d", fixed.FullName(), size, len(v.raw))
		}

		enc.WriteFixed(v.raw)

		return nil
	}
}

// selectBranch picks the union branch for a bare value: first a named branch
// whose fully-qualified name matches the value's type name, then the first
// branch the value's shape is compatible with.
func selectBranch(branches []schema.Schema, v Value) int {
	if v.typeName != "" {
		for i, branch := range branches {
			if named, ok := schema.Resolve(branch).(schema.NamedSchema); ok && named.FullName() == v.typeName {
				return i
			}
		}
	}

	for i, branch := range branches {
		if shapeMatches(schema.Resolve(branch), v) {
			return i
		}
	}

	return -1
}

// shapeMatches reports whether a value's runtime shape can be encoded under
// the given (resolved) branch schema.
func shapeMatches(s schema.Schema, v Value) bool {
	switch v.kind {
	case KindNull:
		return s.Type() == schema.TypeNull
	case KindBoolean:
		return s.Type() == schema.TypeBoolean
	case KindInt:
		return s.Type() == schema.TypeInt
	case KindLong:
		return s.Type() == schema.TypeLong
	case KindFloat:
		return s.Type() == schema.TypeFloat
	case KindDouble:
		return s.Type() == schema.TypeDouble
	case KindBytes:
		return s.Type() == schema.TypeBytes
	case KindString:
		return s.Type() == schema.TypeString
	case KindEnum:
		enum, ok := s.(*schema.EnumSchema)
		return ok && enum.SymbolIndex(v.str) >= 0
	case KindFixed:
		fixed, ok := s.(*schema.FixedSchema)
		return ok && fixed.Size() == len(v.raw)
	case KindArray:
		return s.Type() == schema.TypeArray
	case KindMap:
		return s.Type() == schema.TypeMap
	case KindRecord:
		rec, ok := s.(*schema.RecordSchema)
		if !ok {
			return false
		}

		// Every required schema field must be present, and every value field
		// must exist on the record.
		for _, f := range rec.Fields() {
			if _, present := v.entries[f.Name()]; !present && !f.HasDefault() {
				return false
			}
		}

		for name := range v.entries {
			if rec.Field(name) == nil {
				return false
			}
		}

		return true
	default:
		return false
	}
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}

	return path + "." + name
}
