package datum

import (
	"sync"

	"github.com/arloliu/avrofile/encoding"
	"github.com/arloliu/avrofile/schema"
)

// compileSkip builds a discarder for one writer schema node. Skip decoders
// back record resolution: writer fields absent from the reader are consumed
// without materializing values.
func compileSkip(s schema.Schema) (skipFunc, error) {
	// A back-reference compiles its target on first use, so a record that
	// refers to itself does not recurse without end.
	if ref, ok := s.(*schema.RefSchema); ok {
		var once sync.Once
		var fn skipFunc
		var err error

		return func(dec *encoding.Decoder) error {
			once.Do(func() { fn, err = compileSkip(ref.Target()) })
			if err != nil {
				return err
			}

			return fn(dec)
		}, nil
	}

	switch v := schema.Resolve(s).(type) {
	case *schema.PrimitiveSchema:
		return compileSkipPrimitive(v.Type()), nil
	case *schema.RecordSchema:
		steps := make([]skipFunc, 0, len(v.Fields()))

		for _, f := range v.Fields() {
			skip, err := compileSkip(f.Schema())
			if err != nil {
				return nil, err
			}

			steps = append(steps, skip)
		}

		return func(dec *encoding.Decoder) error {
			for _, skip := range steps {
				if err := skip(dec); err != nil {
					return err
				}
			}

			return nil
		}, nil
	case *schema.EnumSchema:
		return skipLong, nil
	case *schema.ArraySchema:
		skipItem, err := compileSkip(v.Items())
		if err != nil {
			return nil, err
		}

		return compileSkipBlocks(skipItem, false), nil
	case *schema.MapSchema:
		skipValue, err := compileSkip(v.Values())
		if err != nil {
			return nil, err
		}

		return compileSkipBlocks(skipValue, true), nil
	case *schema.UnionSchema:
		branchFns := make([]skipFunc, len(v.Branches()))
		for i, branch := range v.Branches() {
			fn, err := compileSkip(branch)
			if err != nil {
				return nil, err
			}

			branchFns[i] = fn
		}

		return func(dec *encoding.Decoder) error {
			idx, err := dec.ReadLong()
			if err != nil {
				return err
			}

			if idx < 0 || idx >= int64(len(branchFns)) {
				return incompatibleErrorf("union branch index %d out of range [0,%d)", idx, len(branchFns))
			}

			return branchFns[idx](dec)
		}, nil
	case *schema.FixedSchema:
		size := int64(v.Size())

		return func(dec *encoding.Decoder) error {
			return dec.Skip(size)
		}, nil
	default:
		return nil, incompatibleErrorf("unsupported schema type %q", s.Type())
	}
}

func compileSkipPrimitive(typ schema.Type) skipFunc {
	switch typ {
	case schema.TypeNull:
		return func(_ *encoding.Decoder) error { return nil }
	case schema.TypeBoolean:
		return func(dec *encoding.Decoder) error { return dec.Skip(1) }
	case schema.TypeInt, schema.TypeLong:
		return skipLong
	case schema.TypeFloat:
		return func(dec *encoding.Decoder) error { return dec.Skip(4) }
	case schema.TypeDouble:
		return func(dec *encoding.Decoder) error { return dec.Skip(8) }
	case schema.TypeBytes, schema.TypeString:
		return func(dec *encoding.Decoder) error { return dec.SkipBytes() }
	default:
		return func(_ *encoding.Decoder) error {
			return incompatibleErrorf("unsupported primitive %q", typ)
		}
	}
}

func skipLong(dec *encoding.Decoder) error {
	_, err := dec.ReadLong()
	return err
}

// compileSkipBlocks discards an array or map. Blocks written with a negative
// count carry their byte size, letting whole blocks be skipped without
// decoding items.
func compileSkipBlocks(skipItem skipFunc, withKeys bool) skipFunc {
	return func(dec *encoding.Decoder) error {
		for {
			count, size, err := dec.ReadBlockCount()
			if err != nil {
				return err
			}

			if count == 0 {
				return nil
			}

			if size >= 0 {
				if err := dec.Skip(size); err != nil {
					return err
				}

				continue
			}

			for i := int64(0); i < count; i++ {
				if withKeys {
					if err := dec.SkipBytes(); err != nil {
						return err
					}
				}

				if err := skipItem(dec); err != nil {
					return err
				}
			}
		}
	}
}
