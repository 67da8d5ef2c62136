package datum

import (
	"fmt"

	"github.com/arloliu/avrofile/schema"
)

// valueFromDefault converts a JSON-decoded field default into a Value under
// the field's schema. Defaults follow Avro's JSON encoding: numbers are JSON
// numbers, bytes and fixed are strings of code points 0-255, and a union
// default is written against the union's first branch.
func valueFromDefault(s schema.Schema, def any) (Value, error) {
	resolved := schema.Resolve(s)

	switch v := resolved.(type) {
	case *schema.PrimitiveSchema:
		return primitiveFromDefault(v.Type(), def)
	case *schema.RecordSchema:
		obj, ok := def.(map[string]any)
		if !ok {
			return Value{}, fmt.Errorf("record default must be an object, got %T", def)
		}

		fields := make(map[string]Value, len(v.Fields()))
		for _, f := range v.Fields() {
			raw, present := obj[f.Name()]
			if !present {
				if !f.HasDefault() {
					return Value{}, fmt.Errorf("record default missing field %q", f.Name())
				}

				raw = f.Default()
			}

			fv, err := valueFromDefault(f.Schema(), raw)
			if err != nil {
				return Value{}, err
			}

			fields[f.Name()] = fv
		}

		return Record(fields), nil
	case *schema.EnumSchema:
		symbol, ok := def.(string)
		if !ok || v.SymbolIndex(symbol) < 0 {
			return Value{}, fmt.Errorf("enum default %v is not a symbol of %s", def, v.FullName())
		}

		return Enum(symbol), nil
	case *schema.ArraySchema:
		items, ok := def.([]any)
		if !ok {
			return Value{}, fmt.Errorf("array default must be an array, got %T", def)
		}

		list := make([]Value, len(items))
		for i, item := range items {
			iv, err := valueFromDefault(v.Items(), item)
			if err != nil {
				return Value{}, err
			}

			list[i] = iv
		}

		return Array(list...), nil
	case *schema.MapSchema:
		obj, ok := def.(map[string]any)
		if !ok {
			return Value{}, fmt.Errorf("map default must be an object, got %T", def)
		}

		entries := make(map[string]Value, len(obj))
		for k, raw := range obj {
			ev, err := valueFromDefault(v.Values(), raw)
			if err != nil {
				return Value{}, err
			}

			entries[k] = ev
		}

		return Map(entries), nil
	case *schema.UnionSchema:
		// The default is interpreted against the first branch.
		if len(v.Branches()) == 0 {
			return Value{}, fmt.Errorf("union has no branches")
		}

		inner, err := valueFromDefault(v.Branches()[0], def)
		if err != nil {
			return Value{}, err
		}

		return Union(0, inner), nil
	case *schema.FixedSchema:
		raw, err := bytesFromDefault(def)
		if err != nil {
			return Value{}, err
		}

		if len(raw) != v.Size() {
			return Value{}, fmt.Errorf("fixed default has %d bytes, schema requires %d", len(raw), v.Size())
		}

		return Fixed(raw), nil
	default:
		return Value{}, fmt.Errorf("unsupported schema type %q", resolved.Type())
	}
}

func primitiveFromDefault(typ schema.Type, def any) (Value, error) {
	switch typ {
	case schema.TypeNull:
		if def != nil {
			return Value{}, fmt.Errorf("null default must be null, got %T", def)
		}

		return Null(), nil
	case schema.TypeBoolean:
		b, ok := def.(bool)
		if !ok {
			return Value{}, fmt.Errorf("boolean default must be a boolean, got %T", def)
		}

		return Boolean(b), nil
	case schema.TypeInt:
		n, ok := def.(float64)
		if !ok || n != float64(int32(n)) {
			return Value{}, fmt.Errorf("int default must be a 32-bit integer, got %v", def)
		}

		return Int(int32(n)), nil
	case schema.TypeLong:
		n, ok := def.(float64)
		if !ok || n != float64(int64(n)) {
			return Value{}, fmt.Errorf("long default must be a 64-bit integer, got %v", def)
		}

		return Long(int64(n)), nil
	case schema.TypeFloat:
		n, ok := def.(float64)
		if !ok {
			return Value{}, fmt.Errorf("float default must be a number, got %T", def)
		}

		return Float(float32(n)), nil
	case schema.TypeDouble:
		n, ok := def.(float64)
		if !ok {
			return Value{}, fmt.Errorf("double default must be a number, got %T", def)
		}

		return Double(n), nil
	case schema.TypeBytes:
		raw, err := bytesFromDefault(def)
		if err != nil {
			return Value{}, err
		}

		return Bytes(raw), nil
	case schema.TypeString:
		s, ok := def.(string)
		if !ok {
			return Value{}, fmt.Errorf("string default must be a string, got %T", def)
		}

		return String(s), nil
	default:
		return Value{}, fmt.Errorf("unsupported primitive %q", typ)
	}
}

// bytesFromDefault decodes the Avro JSON byte convention: a string whose code
// points are all below 256, one byte each.
func bytesFromDefault(def any) ([]byte, error) {
	s, ok := def.(string)
	if !ok {
		return nil, fmt.Errorf("bytes default must be a string, got %T", def)
	}

	raw := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return nil, fmt.Errorf("bytes default contains code point %U above 255", r)
		}

		raw = append(raw, byte(r))
	}

	return raw, nil
}
