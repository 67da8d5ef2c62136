package datum

import (
	"fmt"

	"github.com/arloliu/avrofile/encoding"
	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/schema"
)

// compileResolved builds a decoder for data written under writer that yields
// values shaped by reader.
func compileResolved(writer, reader schema.Schema) (readFunc, error) {
	w := schema.Resolve(writer)
	r := schema.Resolve(reader)

	// A writer union decodes its branch index first; each branch resolves
	// independently against the reader. An unresolvable branch only fails if
	// it is actually encountered in data, except when no branch resolves at
	// all, which cannot decode anything.
	if wu, ok := w.(*schema.UnionSchema); ok {
		branches := wu.Branches()
		branchFns := make([]readFunc, len(branches))
		branchErrs := make([]error, len(branches))

		resolvable := false
		for i, branch := range branches {
			fn, err := compileResolved(branch, r)
			if err != nil {
				branchErrs[i] = err
				continue
			}

			branchFns[i] = fn
			resolvable = true
		}

		if !resolvable {
			return nil, incompatibleErrorf("no writer union branch resolves against reader %s", r.Type())
		}

		return compileReadUnionIndex(branchFns, branchErrs), nil
	}

	// A reader union accepts a non-union writer through its first compatible
	// branch.
	if ru, ok := r.(*schema.UnionSchema); ok {
		for _, branch := range ru.Branches() {
			if fn, err := compileResolved(w, branch); err == nil {
				return fn, nil
			}
		}

		return nil, incompatibleErrorf("writer %s matches no reader union branch", w.Type())
	}

	switch wv := w.(type) {
	case *schema.PrimitiveSchema:
		return resolvePrimitive(wv.Type(), r)
	case *schema.RecordSchema:
		rr, ok := r.(*schema.RecordSchema)
		if !ok {
			return nil, incompatibleErrorf("writer record %s against reader %s", wv.FullName(), r.Type())
		}

		return resolveRecord(wv, rr)
	case *schema.EnumSchema:
		rr, ok := r.(*schema.EnumSchema)
		if !ok {
			return nil, incompatibleErrorf("writer enum %s against reader %s", wv.FullName(), r.Type())
		}

		return resolveEnum(wv, rr), nil
	case *schema.ArraySchema:
		rr, ok := r.(*schema.ArraySchema)
		if !ok {
			return nil, incompatibleErrorf("writer array against reader %s", r.Type())
		}

		readItem, err := compileResolved(wv.Items(), rr.Items())
		if err != nil {
			return nil, err
		}

		return compileReadArrayItems(readItem), nil
	case *schema.MapSchema:
		rr, ok := r.(*schema.MapSchema)
		if !ok {
			return nil, incompatibleErrorf("writer map against reader %s", r.Type())
		}

		readValue, err := compileResolved(wv.Values(), rr.Values())
		if err != nil {
			return nil, err
		}

		return compileReadMapValues(readValue), nil
	case *schema.FixedSchema:
		rr, ok := r.(*schema.FixedSchema)
		if !ok || rr.FullName() != wv.FullName() || rr.Size() != wv.Size() {
			return nil, incompatibleErrorf("writer fixed %s(%d) against reader %s", wv.FullName(), wv.Size(), r.Type())
		}

		return compileRead(rr)
	default:
		return nil, incompatibleErrorf("unsupported writer schema type %q", w.Type())
	}
}

// resolvePrimitive applies the numeric promotion and string/bytes rules.
func resolvePrimitive(wt schema.Type, r schema.Schema) (readFunc, error) {
	rp, ok := r.(*schema.PrimitiveSchema)
	if !ok {
		return nil, incompatibleErrorf("writer %s against reader %s", wt, r.Type())
	}

	rt := rp.Type()
	if wt == rt {
		return compileReadPrimitive(wt), nil
	}

	switch {
	case wt == schema.TypeInt && rt == schema.TypeLong:
		return promoteInt(func(v int32) Value { return Long(int64(v)) }), nil
	case wt == schema.TypeInt && rt == schema.TypeFloat:
		return promoteInt(func(v int32) Value { return Float(float32(v)) }), nil
	case wt == schema.TypeInt && rt == schema.TypeDouble:
		return promoteInt(func(v int32) Value { return Double(float64(v)) }), nil
	case wt == schema.TypeLong && rt == schema.TypeFloat:
		return promoteLong(func(v int64) Value { return Float(float32(v)) }), nil
	case wt == schema.TypeLong && rt == schema.TypeDouble:
		return promoteLong(func(v int64) Value { return Double(float64(v)) }), nil
	case wt == schema.TypeFloat && rt == schema.TypeDouble:
		return func(dec *encoding.Decoder) (Value, error) {
			v, err := dec.ReadFloat()
			if err != nil {
				return Value{}, err
			}

			return Double(float64(v)), nil
		}, nil
	case wt == schema.TypeString && rt == schema.TypeBytes:
		return func(dec *encoding.Decoder) (Value, error) {
			v, err := dec.ReadBytes()
			if err != nil {
				return Value{}, err
			}

			return Bytes(v), nil
		}, nil
	case wt == schema.TypeBytes && rt == schema.TypeString:
		return func(dec *encoding.Decoder) (Value, error) {
			v, err := dec.ReadString()
			if err != nil {
				return Value{}, err
			}

			return String(v), nil
		}, nil
	default:
		return nil, incompatibleErrorf("no promotion from writer %s to reader %s", wt, rt)
	}
}

func promoteInt(convert func(int32) Value) readFunc {
	return func(dec *encoding.Decoder) (Value, error) {
		v, err := dec.ReadInt()
		if err != nil {
			return Value{}, err
		}

		return convert(v), nil
	}
}

func promoteLong(convert func(int64) Value) readFunc {
	return func(dec *encoding.Decoder) (Value, error) {
		v, err := dec.ReadLong()
		if err != nil {
			return Value{}, err
		}

		return convert(v), nil
	}
}

// resolveRecord matches fields by name: shared fields resolve recursively,
// writer-only fields are skip-decoded, reader-only fields take the reader's
// default.
func resolveRecord(w, r *schema.RecordSchema) (readFunc, error) {
	steps := make([]recordStep, 0, len(w.Fields()))

	for _, wf := range w.Fields() {
		rf := r.Field(wf.Name())
		if rf == nil {
			skip, err := compileSkip(wf.Schema())
			if err != nil {
				return nil, err
			}

			steps = append(steps, recordStep{name: wf.Name(), skip: skip})

			continue
		}

		read, err := compileResolved(wf.Schema(), rf.Schema())
		if err != nil {
			return nil, err
		}

		steps = append(steps, recordStep{name: wf.Name(), read: read})
	}

	var injected map[string]Value

	for _, rf := range r.Fields() {
		if w.Field(rf.Name()) != nil {
			continue
		}

		if !rf.HasDefault() {
			return nil, incompatibleErrorf("reader field %s.%s absent from writer and has no default", r.FullName(), rf.Name())
		}

		def, err := valueFromDefault(rf.Schema(), rf.Default())
		if err != nil {
			return nil, incompatibleErrorf("reader field %s.%s default: %v", r.FullName(), rf.Name(), err)
		}

		if injected == nil {
			injected = make(map[string]Value)
		}

		injected[rf.Name()] = def
	}

	return compileReadRecordSteps(steps, injected), nil
}

// resolveEnum precomputes the writer-index to reader-symbol mapping. A writer
// symbol absent from the reader fails with errs.ErrEnumSymbolMissing when it
// appears in data.
func resolveEnum(w, r *schema.EnumSchema) readFunc {
	symbols := w.Symbols()
	mapped := make([]bool, len(symbols))

	for i, symbol := range symbols {
		mapped[i] = r.SymbolIndex(symbol) >= 0
	}

	return func(dec *encoding.Decoder) (Value, error) {
		idx, err := dec.ReadLong()
		if err != nil {
			return Value{}, err
		}

		if idx < 0 || idx >= int64(len(symbols)) {
			return Value{}, incompatibleErrorf("enum %s index %d out of range [0,%d)", w.FullName(), idx, len(symbols))
		}

		if !mapped[idx] {
			return Value{}, fmt.Errorf("%w: symbol %s of %s not in %s", errs.ErrEnumSymbolMissing, symbols[idx], w.FullName(), r.FullName())
		}

		return Enum(symbols[idx]), nil
	}
}
