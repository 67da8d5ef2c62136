package datum

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindString
	KindRecord
	KindEnum
	KindArray
	KindMap
	KindFixed
	KindUnion
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBoolean: "boolean",
	KindInt:     "int",
	KindLong:    "long",
	KindFloat:   "float",
	KindDouble:  "double",
	KindBytes:   "bytes",
	KindString:  "string",
	KindRecord:  "record",
	KindEnum:    "enum",
	KindArray:   "array",
	KindMap:     "map",
	KindFixed:   "fixed",
	KindUnion:   "union",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a tagged Avro value.
//
// A Value is a small copyable struct; the zero value is Null. Composite
// payloads (bytes, arrays, maps, records) share their backing storage between
// copies, so a Value handed to a write plan must not be mutated until the
// call returns.
type Value struct {
	kind Kind

	// typeName optionally names the schema type this value was built for.
	// Union branch selection uses it to tie-break between multiple named
	// branches of the same kind.
	typeName string

	num     uint64           // boolean, int, long, float, double bits
	str     string           // string, enum symbol
	raw     []byte           // bytes, fixed
	list    []Value          // array
	entries map[string]Value // map, record
	union   *unionBox
}

// unionBox carries an explicit union pick: the branch index and the boxed
// branch value.
type unionBox struct {
	branch int
	value  Value
}

// Null returns the null value. It is also the zero Value.
func Null() Value {
	return Value{kind: KindNull}
}

// Boolean returns a boolean value.
func Boolean(v bool) Value {
	var num uint64
	if v {
		num = 1
	}

	return Value{kind: KindBoolean, num: num}
}

// Int returns a 32-bit integer value.
func Int(v int32) Value {
	return Value{kind: KindInt, num: uint64(uint32(v))}
}

// Long returns a 64-bit integer value.
func Long(v int64) Value {
	return Value{kind: KindLong, num: uint64(v)} //nolint:gosec
}

// Float returns a 32-bit floating point value.
func Float(v float32) Value {
	return Value{kind: KindFloat, num: uint64(math.Float32bits(v))}
}

// Double returns a 64-bit floating point value.
func Double(v float64) Value {
	return Value{kind: KindDouble, num: math.Float64bits(v)}
}

// Bytes returns a byte-sequence value. The slice is referenced, not copied.
func Bytes(v []byte) Value {
	return Value{kind: KindBytes, raw: v}
}

// String returns a string value.
func String(v string) Value {
	return Value{kind: KindString, str: v}
}

// Enum returns an enum value holding the given symbol.
func Enum(symbol string) Value {
	return Value{kind: KindEnum, str: symbol}
}

// Array returns an array value over the given items.
func Array(items ...Value) Value {
	return Value{kind: KindArray, list: items}
}

// Map returns a map value. The map is referenced, not copied.
func Map(entries map[string]Value) Value {
	return Value{kind: KindMap, entries: entries}
}

// Record returns a record value holding fields by name. The map is
// referenced, not copied; field order comes from the schema at encode time.
func Record(fields map[string]Value) Value {
	return Value{kind: KindRecord, entries: fields}
}

// Fixed returns a fixed value over the given bytes. The slice is referenced,
// not copied; its length must equal the schema's fixed size at encode time.
func Fixed(v []byte) Value {
	return Value{kind: KindFixed, raw: v}
}

// Union returns an explicit union pick: branch is the zero-based index into
// the union's declared branches and v the branch value. Plans validate the
// index and the value's shape against the branch schema.
//
// Explicit picks are optional; a bare Value placed where a union is expected
// is matched against the branches by shape.
func Union(branch int, v Value) Value {
	return Value{kind: KindUnion, union: &unionBox{branch: branch, value: v}}
}

// Named returns a copy of v tagged with a fully-qualified type name. Union
// branch selection prefers a named branch whose name matches; encoding is
// otherwise unaffected.
func (v Value) Named(fullName string) Value {
	v.typeName = fullName
	return v
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	return v.kind
}

// TypeName returns the optional type name attached with Named.
func (v Value) TypeName() string {
	return v.typeName
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Boolean returns the boolean payload. Valid only for KindBoolean.
func (v Value) Boolean() bool {
	return v.num != 0
}

// Int returns the 32-bit integer payload. Valid only for KindInt.
func (v Value) Int() int32 {
	return int32(uint32(v.num))
}

// Long returns the 64-bit integer payload. Valid only for KindLong.
func (v Value) Long() int64 {
	return int64(v.num) //nolint:gosec
}

// Float returns the 32-bit float payload. Valid only for KindFloat.
func (v Value) Float() float32 {
	return math.Float32frombits(uint32(v.num))
}

// Double returns the 64-bit float payload. Valid only for KindDouble.
func (v Value) Double() float64 {
	return math.Float64frombits(v.num)
}

// Bytes returns the byte payload of a bytes or fixed value.
func (v Value) Bytes() []byte {
	return v.raw
}

// String returns the string payload of a string or enum value. For other
// kinds it returns a debug rendering, satisfying fmt.Stringer.
func (v Value) String() string {
	switch v.kind {
	case KindString, KindEnum:
		return v.str
	default:
		return v.debugString()
	}
}

// Symbol returns the enum symbol. Valid only for KindEnum.
func (v Value) Symbol() string {
	return v.str
}

// Items returns the items of an array value.
func (v Value) Items() []Value {
	return v.list
}

// Entries returns the entries of a map value or the fields of a record value.
func (v Value) Entries() map[string]Value {
	return v.entries
}

// Field returns a record field by name. The second result reports presence.
func (v Value) Field(name string) (Value, bool) {
	fv, ok := v.entries[name]
	return fv, ok
}

// Branch returns the explicit union pick, or (-1, v) when the value is not a
// union wrapper.
func (v Value) Branch() (int, Value) {
	if v.kind != KindUnion {
		return -1, v
	}

	return v.union.branch, v.union.value
}

// unwrapUnion strips any union wrapper, returning the boxed branch value.
func unwrapUnion(v Value) Value {
	for v.kind == KindUnion {
		v = v.union.value
	}

	return v
}

// Equal reports whether two values are equal.
//
// Union wrappers are transparent: Union(1, Int(5)) equals Int(5), since the
// wrapper is a write-side branch hint, not part of the data. Floats compare
// by bit pattern so NaN round-trips as equal.
func Equal(a, b Value) bool {
	a = unwrapUnion(a)
	b = unwrapUnion(b)

	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true
	case KindBoolean, KindInt, KindLong, KindFloat, KindDouble:
		return a.num == b.num
	case KindString, KindEnum:
		return a.str == b.str
	case KindBytes, KindFixed:
		return string(a.raw) == string(b.raw)
	case KindArray:
		if len(a.list) != len(b.list) {
			return false
		}

		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}

		return true
	case KindMap, KindRecord:
		if len(a.entries) != len(b.entries) {
			return false
		}

		for k, av := range a.entries {
			bv, ok := b.entries[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// debugString renders any value for error messages and logs.
func (v Value) debugString() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBoolean:
		return fmt.Sprintf("%t", v.Boolean())
	case KindInt:
		return fmt.Sprintf("%d", v.Int())
	case KindLong:
		return fmt.Sprintf("%d", v.Long())
	case KindFloat:
		return fmt.Sprintf("%g", v.Float())
	case KindDouble:
		return fmt.Sprintf("%g", v.Double())
	case KindBytes, KindFixed:
		return fmt.Sprintf("%x", v.raw)
	case KindArray:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.debugString()
		}

		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap, KindRecord:
		keys := make([]string, 0, len(v.entries))
		for k := range v.entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.entries[k].debugString()
		}

		return "{" + strings.Join(parts, ", ") + "}"
	case KindUnion:
		return fmt.Sprintf("union(%d, %s)", v.union.branch, v.union.value.debugString())
	default:
		return v.kind.String()
	}
}

// Interface converts the value to plain Go types: nil, bool, int32, int64,
// float32, float64, []byte, string, []any and map[string]any. Union wrappers
// unwrap to their branch value. Useful for JSON projection and debugging.
func (v Value) Interface() any {
	v = unwrapUnion(v)

	switch v.kind {
	case KindNull:
		return nil
	case KindBoolean:
		return v.Boolean()
	case KindInt:
		return v.Int()
	case KindLong:
		return v.Long()
	case KindFloat:
		return v.Float()
	case KindDouble:
		return v.Double()
	case KindBytes, KindFixed:
		return v.raw
	case KindString, KindEnum:
		return v.str
	case KindArray:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}

		return out
	case KindMap, KindRecord:
		out := make(map[string]any, len(v.entries))
		for k, entry := range v.entries {
			out[k] = entry.Interface()
		}

		return out
	default:
		return nil
	}
}
