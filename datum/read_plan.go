package datum

import (
	"fmt"
	"sync"

	"github.com/arloliu/avrofile/encoding"
	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/schema"
)

// readFunc decodes one value.
type readFunc func(dec *encoding.Decoder) (Value, error)

// skipFunc discards one encoded value.
type skipFunc func(dec *encoding.Decoder) error

// ReadPlan decodes values written under a writer schema, optionally resolved
// against a different reader schema.
//
// A compiled plan is immutable and safe for concurrent use with distinct
// decoders.
type ReadPlan struct {
	root   readFunc
	writer schema.Schema
	reader schema.Schema
}

// NewReadPlan compiles a read plan that mirrors the writer schema: the plan
// decodes exactly what a WritePlan for the same schema encodes.
func NewReadPlan(writer schema.Schema) (*ReadPlan, error) {
	root, err := compileRead(writer)
	if err != nil {
		return nil, err
	}

	return &ReadPlan{root: root, writer: writer, reader: writer}, nil
}

// NewResolvedReadPlan compiles a read plan that decodes data written under
// writer and yields values shaped by reader, applying Avro's resolution
// rules: numeric promotion, string/bytes interchange, record field matching
// with skip-decode and defaults, enum symbol resolution and union re-binding.
//
// Returns errs.ErrSchemaIncompatible when the schemas cannot be reconciled.
func NewResolvedReadPlan(writer, reader schema.Schema) (*ReadPlan, error) {
	if reader == nil || schema.Equal(writer, reader) {
		return NewReadPlan(writer)
	}

	root, err := compileResolved(writer, reader)
	if err != nil {
		return nil, err
	}

	return &ReadPlan{root: root, writer: writer, reader: reader}, nil
}

// Read decodes one value from dec.
func (p *ReadPlan) Read(dec *encoding.Decoder) (Value, error) {
	return p.root(dec)
}

// Writer returns the writer schema the plan decodes.
func (p *ReadPlan) Writer() schema.Schema {
	return p.writer
}

// Reader returns the schema shaping the produced values.
func (p *ReadPlan) Reader() schema.Schema {
	return p.reader
}

func incompatibleErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrSchemaIncompatible, fmt.Sprintf(format, args...))
}

// compileRead builds the mirror decoder for one writer schema node.
func compileRead(s schema.Schema) (readFunc, error) {
	// A back-reference compiles its target on first use, so a record that
	// refers to itself does not recurse without end.
	if ref, ok := s.(*schema.RefSchema); ok {
		var once sync.Once
		var fn readFunc
		var err error

		return func(dec *encoding.Decoder) (Value, error) {
			once.Do(func() { fn, err = compileRead(ref.Target()) })
			if err != nil {
				return Value{}, err
			}

			return fn(dec)
		}, nil
	}

	switch v := schema.Resolve(s).(type) {
	case *schema.PrimitiveSchema:
		return compileReadPrimitive(v.Type()), nil
	case *schema.RecordSchema:
		return compileReadRecord(v)
	case *schema.EnumSchema:
		return compileReadEnum(v), nil
	case *schema.ArraySchema:
		return compileReadArray(v.Items())
	case *schema.MapSchema:
		return compileReadMap(v.Values())
	case *schema.UnionSchema:
		branchFns := make([]readFunc, len(v.Branches()))
		for i, branch := range v.Branches() {
			fn, err := compileRead(branch)
			if err != nil {
				return nil, err
			}

			branchFns[i] = fn
		}

		return compileReadUnionIndex(branchFns, nil), nil
	case *schema.FixedSchema:
		size := v.Size()

		return func(dec *encoding.Decoder) (Value, error) {
			raw, err := dec.ReadFixed(size)
			if err != nil {
				return Value{}, err
			}

			return Fixed(raw), nil
		}, nil
	default:
		return nil, incompatibleErrorf("unsupported schema type %q", s.Type())
	}
}

func compileReadPrimitive(typ schema.Type) readFunc {
	switch typ {
	case schema.TypeNull:
		return func(_ *encoding.Decoder) (Value, error) { return Null(), nil }
	case schema.TypeBoolean:
		return func(dec *encoding.Decoder) (Value, error) {
			v, err := dec.ReadBoolean()
			if err != nil {
				return Value{}, err
			}

			return Boolean(v), nil
		}
	case schema.TypeInt:
		return func(dec *encoding.Decoder) (Value, error) {
			v, err := dec.ReadInt()
			if err != nil {
				return Value{}, err
			}

			return Int(v), nil
		}
	case schema.TypeLong:
		return func(dec *encoding.Decoder) (Value, error) {
			v, err := dec.ReadLong()
			if err != nil {
				return Value{}, err
			}

			return Long(v), nil
		}
	case schema.TypeFloat:
		return func(dec *encoding.Decoder) (Value, error) {
			v, err := dec.ReadFloat()
			if err != nil {
				return Value{}, err
			}

			return Float(v), nil
		}
	case schema.TypeDouble:
		return func(dec *encoding.Decoder) (Value, error) {
			v, err := dec.ReadDouble()
			if err != nil {
				return Value{}, err
			}

			return Double(v), nil
		}
	case schema.TypeBytes:
		return func(dec *encoding.Decoder) (Value, error) {
			v, err := dec.ReadBytes()
			if err != nil {
				return Value{}, err
			}

			return Bytes(v), nil
		}
	case schema.TypeString:
		return func(dec *encoding.Decoder) (Value, error) {
			v, err := dec.ReadString()
			if err != nil {
				return Value{}, err
			}

			return String(v), nil
		}
	default:
		return func(_ *encoding.Decoder) (Value, error) {
			return Value{}, incompatibleErrorf("unsupported primitive %q", typ)
		}
	}
}

// recordStep decodes or skips one writer field. A nil read means the field is
// dropped; a nil skip means the field is kept under name.
type recordStep struct {
	name string
	read readFunc
	skip skipFunc
}

func compileReadRecord(rec *schema.RecordSchema) (readFunc, error) {
	steps := make([]recordStep, 0, len(rec.Fields()))

	for _, f := range rec.Fields() {
		read, err := compileRead(f.Schema())
		if err != nil {
			return nil, err
		}

		steps = append(steps, recordStep{name: f.Name(), read: read})
	}

	return compileReadRecordSteps(steps, nil), nil
}

// compileReadRecordSteps assembles a record decoder from per-writer-field
// steps plus values injected for fields the writer never wrote.
func compileReadRecordSteps(steps []recordStep, injected map[string]Value) readFunc {
	return func(dec *encoding.Decoder) (Value, error) {
		fields := make(map[string]Value, len(steps)+len(injected))

		for i := range steps {
			step := &steps[i]

			if step.read == nil {
				if err := step.skip(dec); err != nil {
					return Value{}, err
				}

				continue
			}

			fv, err := step.read(dec)
			if err != nil {
				return Value{}, err
			}

			fields[step.name] = fv
		}

		for name, def := range injected {
			fields[name] = def
		}

		return Record(fields), nil
	}
}

func compileReadEnum(enum *schema.EnumSchema) readFunc {
	symbols := enum.Symbols()

	return func(dec *encoding.Decoder) (Value, error) {
		idx, err := dec.ReadLong()
		if err != nil {
			return Value{}, err
		}

		if idx < 0 || idx >= int64(len(symbols)) {
			return Value{}, incompatibleErrorf("enum %s index %d out of range [0,%d)", enum.FullName(), idx, len(symbols))
		}

		return Enum(symbols[idx]), nil
	}
}

func compileReadArray(items schema.Schema) (readFunc, error) {
	readItem, err := compileRead(items)
	if err != nil {
		return nil, err
	}

	return compileReadArrayItems(readItem), nil
}

func compileReadArrayItems(readItem readFunc) readFunc {
	return func(dec *encoding.Decoder) (Value, error) {
		var list []Value

		for {
			count, _, err := dec.ReadBlockCount()
			if err != nil {
				return Value{}, err
			}

			if count == 0 {
				return Array(list...), nil
			}

			for i := int64(0); i < count; i++ {
				item, err := readItem(dec)
				if err != nil {
					return Value{}, err
				}

				list = append(list, item)
			}
		}
	}
}

func compileReadMap(values schema.Schema) (readFunc, error) {
	readValue, err := compileRead(values)
	if err != nil {
		return nil, err
	}

	return compileReadMapValues(readValue), nil
}

func compileReadMapValues(readValue readFunc) readFunc {
	return func(dec *encoding.Decoder) (Value, error) {
		entries := make(map[string]Value)

		for {
			count, _, err := dec.ReadBlockCount()
			if err != nil {
				return Value{}, err
			}

			if count == 0 {
				return Map(entries), nil
			}

			for i := int64(0); i < count; i++ {
				key, err := dec.ReadString()
				if err != nil {
					return Value{}, err
				}

				ev, err := readValue(dec)
				if err != nil {
					return Value{}, err
				}

				entries[key] = ev
			}
		}
	}
}

// compileReadUnionIndex decodes a writer union: the branch index selects a
// per-branch decoder. branchErrs, when non-nil, carries compile-time
// resolution failures surfaced only if that branch is encountered in data.
func compileReadUnionIndex(branchFns []readFunc, branchErrs []error) readFunc {
	return func(dec *encoding.Decoder) (Value, error) {
		idx, err := dec.ReadLong()
		if err != nil {
			return Value{}, err
		}

		if idx < 0 || idx >= int64(len(branchFns)) {
			return Value{}, incompatibleErrorf("union branch index %d out of range [0,%d)", idx, len(branchFns))
		}

		if branchFns[idx] == nil {
			return Value{}, branchErrs[idx]
		}

		return branchFns[idx](dec)
	}
}
