package datum

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/avrofile/encoding"
	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/internal/pool"
	"github.com/arloliu/avrofile/schema"
)

// encodeValue runs a freshly compiled write plan over v and returns the wire
// bytes.
func encodeValue(t *testing.T, s schema.Schema, v Value) []byte {
	t.Helper()

	plan, err := NewWritePlan(s)
	require.NoError(t, err)

	buf := pool.NewByteBuffer(64)
	require.NoError(t, plan.Write(encoding.NewEncoder(buf), v))

	return buf.Bytes()
}

// roundTrip encodes v under s and decodes it with a mirror read plan.
func roundTrip(t *testing.T, s schema.Schema, v Value) Value {
	t.Helper()

	data := encodeValue(t, s, v)

	plan, err := NewReadPlan(s)
	require.NoError(t, err)

	out, err := plan.Read(encoding.NewDecoder(bytes.NewReader(data)))
	require.NoError(t, err)

	return out
}

func TestPlan_PrimitiveRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		value  Value
	}{
		{"null", `"null"`, Null()},
		{"boolean", `"boolean"`, Boolean(true)},
		{"int", `"int"`, Int(-123456)},
		{"long", `"long"`, Long(1 << 40)},
		{"float", `"float"`, Float(3.5)},
		{"double", `"double"`, Double(-2.25)},
		{"bytes", `"bytes"`, Bytes([]byte{0x00, 0xff, 0x10})},
		{"string", `"string"`, String("héllo")},
		{"empty string", `"string"`, String("")},
		{"empty bytes", `"bytes"`, Bytes(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := roundTrip(t, schema.MustParse(tt.schema), tt.value)
			require.True(t, Equal(tt.value, out), "got %s want %s", out, tt.value)
		})
	}
}

func TestPlan_PrimitiveMismatch(t *testing.T) {
	plan, err := NewWritePlan(schema.MustParse(`"int"`))
	require.NoError(t, err)

	buf := pool.NewByteBuffer(16)
	err = plan.Write(encoding.NewEncoder(buf), String("nope"))
	require.ErrorIs(t, err, errs.ErrSchemaMismatch)
}

func TestPlan_RecordRoundTrip(t *testing.T) {
	s := schema.MustParse(`{
		"type": "record",
		"name": "Person",
		"fields": [
			{"name": "name", "type": "string"},
			{"name": "age", "type": "int"},
			{"name": "tags", "type": {"type": "array", "items": "string"}}
		]
	}`)

	v := Record(map[string]Value{
		"name": String("ada"),
		"age":  Int(36),
		"tags": Array(String("a"), String("b")),
	})

	out := roundTrip(t, s, v)
	require.True(t, Equal(v, out), "got %s want %s", out, v)
}

func TestPlan_RecordFieldOrder(t *testing.T) {
	// Fields encode in declared order regardless of map construction.
	s := schema.MustParse(`{
		"type": "record",
		"name": "R",
		"fields": [
			{"name": "a", "type": "boolean"},
			{"name": "b", "type": "int"}
		]
	}`)

	data := encodeValue(t, s, Record(map[string]Value{
		"b": Int(1),
		"a": Boolean(true),
	}))

	// boolean 0x01, then zig-zag 1 = 0x02
	require.Equal(t, []byte{0x01, 0x02}, data)
}

func TestPlan_RecordMissingFieldUsesDefault(t *testing.T) {
	s := schema.MustParse(`{
		"type": "record",
		"name": "R",
		"fields": [
			{"name": "x", "type": "int", "default": 7}
		]
	}`)

	out := roundTrip(t, s, Record(map[string]Value{}))
	got, ok := out.Field("x")
	require.True(t, ok)
	require.Equal(t, int32(7), got.Int())
}

func TestPlan_RecordMissingFieldNoDefault(t *testing.T) {
	s := schema.MustParse(`{
		"type": "record",
		"name": "R",
		"fields": [{"name": "x", "type": "int"}]
	}`)

	plan, err := NewWritePlan(s)
	require.NoError(t, err)

	buf := pool.NewByteBuffer(16)
	err = plan.Write(encoding.NewEncoder(buf), Record(map[string]Value{}))
	require.ErrorIs(t, err, errs.ErrSchemaMismatch)
	require.Contains(t, err.Error(), "x")
}

func TestPlan_EnumRoundTrip(t *testing.T) {
	s := schema.MustParse(`{"type":"enum","name":"Suit","symbols":["SPADES","HEARTS"]}`)

	data := encodeValue(t, s, Enum("HEARTS"))
	require.Equal(t, []byte{0x02}, data) // zig-zag 1

	out := roundTrip(t, s, Enum("SPADES"))
	require.Equal(t, "SPADES", out.Symbol())
}

func TestPlan_EnumUnknownSymbol(t *testing.T) {
	s := schema.MustParse(`{"type":"enum","name":"Suit","symbols":["SPADES"]}`)

	plan, err := NewWritePlan(s)
	require.NoError(t, err)

	buf := pool.NewByteBuffer(16)
	err = plan.Write(encoding.NewEncoder(buf), Enum("JOKERS"))
	require.ErrorIs(t, err, errs.ErrSchemaMismatch)
}

func TestPlan_ArrayWireFormat(t *testing.T) {
	s := schema.MustParse(`{"type":"array","items":"int"}`)

	data := encodeValue(t, s, Array(Int(1), Int(2)))

	// count 2 (zig-zag 0x04), items 1 (0x02) and 2 (0x04), terminator 0x00
	require.Equal(t, []byte{0x04, 0x02, 0x04, 0x00}, data)
}

func TestPlan_EmptyArray(t *testing.T) {
	s := schema.MustParse(`{"type":"array","items":"int"}`)

	data := encodeValue(t, s, Array())
	require.Equal(t, []byte{0x00}, data)

	out := roundTrip(t, s, Array())
	require.Empty(t, out.Items())
}

func TestPlan_MapRoundTrip(t *testing.T) {
	s := schema.MustParse(`{"type":"map","values":"long"}`)

	v := Map(map[string]Value{"a": Long(1), "b": Long(-1)})
	out := roundTrip(t, s, v)
	require.True(t, Equal(v, out))
}

func TestPlan_MultiBlockArrayRead(t *testing.T) {
	// Hand-encode two blocks: [1, 2] then [3], then the terminator. Readers
	// must concatenate.
	buf := pool.NewByteBuffer(16)
	enc := encoding.NewEncoder(buf)
	enc.WriteBlockCount(2)
	enc.WriteInt(1)
	enc.WriteInt(2)
	enc.WriteBlockCount(1)
	enc.WriteInt(3)
	enc.WriteBlockCount(0)

	plan, err := NewReadPlan(schema.MustParse(`{"type":"array","items":"int"}`))
	require.NoError(t, err)

	out, err := plan.Read(encoding.NewDecoder(bytes.NewReader(buf.Bytes())))
	require.NoError(t, err)
	require.True(t, Equal(Array(Int(1), Int(2), Int(3)), out))
}

func TestPlan_UnionBranchSelection(t *testing.T) {
	s := schema.MustParse(`["null","int","string"]`)

	t.Run("null picks branch 0", func(t *testing.T) {
		data := encodeValue(t, s, Null())
		require.Equal(t, []byte{0x00}, data)
	})

	t.Run("int picks branch 1", func(t *testing.T) {
		data := encodeValue(t, s, Int(42))
		require.Equal(t, []byte{0x02, 0x54}, data) // index 1, zig-zag 42
	})

	t.Run("string picks branch 2", func(t *testing.T) {
		data := encodeValue(t, s, String("x"))
		require.Equal(t, []byte{0x04, 0x02, 'x'}, data)
	})

	t.Run("explicit pick", func(t *testing.T) {
		data := encodeValue(t, s, Union(1, Int(42)))
		require.Equal(t, []byte{0x02, 0x54}, data)
	})

	t.Run("no branch fits", func(t *testing.T) {
		plan, err := NewWritePlan(s)
		require.NoError(t, err)

		buf := pool.NewByteBuffer(16)
		err = plan.Write(encoding.NewEncoder(buf), Double(1))
		require.ErrorIs(t, err, errs.ErrSchemaMismatch)
	})

	t.Run("explicit pick out of range", func(t *testing.T) {
		plan, err := NewWritePlan(s)
		require.NoError(t, err)

		buf := pool.NewByteBuffer(16)
		err = plan.Write(encoding.NewEncoder(buf), Union(3, Null()))
		require.ErrorIs(t, err, errs.ErrSchemaMismatch)
	})
}

func TestPlan_UnionNamedTieBreak(t *testing.T) {
	s := schema.MustParse(`[
		{"type":"fixed","name":"A","size":4},
		{"type":"fixed","name":"B","size":4}
	]`)

	data := encodeValue(t, s, Fixed([]byte{1, 2, 3, 4}).Named("B"))
	require.Equal(t, byte(0x02), data[0]) // zig-zag branch index 1
}

func TestPlan_UnionRoundTripUnwraps(t *testing.T) {
	s := schema.MustParse(`["null","int"]`)

	out := roundTrip(t, s, Union(1, Int(9)))
	require.Equal(t, KindInt, out.Kind())
	require.Equal(t, int32(9), out.Int())
	require.True(t, Equal(Union(1, Int(9)), out))
}

func TestPlan_FixedRoundTrip(t *testing.T) {
	s := schema.MustParse(`{"type":"fixed","name":"MD5","size":4}`)

	v := Fixed([]byte{0xde, 0xad, 0xbe, 0xef})
	data := encodeValue(t, s, v)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data)

	out := roundTrip(t, s, v)
	require.True(t, Equal(v, out))
}

func TestPlan_FixedWrongLength(t *testing.T) {
	s := schema.MustParse(`{"type":"fixed","name":"MD5","size":4}`)

	plan, err := NewWritePlan(s)
	require.NoError(t, err)

	buf := pool.NewByteBuffer(16)
	err = plan.Write(encoding.NewEncoder(buf), Fixed([]byte{1, 2}))
	require.ErrorIs(t, err, errs.ErrSchemaMismatch)
}

func TestPlan_RecursiveSchema(t *testing.T) {
	s := schema.MustParse(`{
		"type": "record",
		"name": "Node",
		"fields": [
			{"name": "value", "type": "long"},
			{"name": "next", "type": ["null", "Node"]}
		]
	}`)

	v := Record(map[string]Value{
		"value": Long(1),
		"next": Record(map[string]Value{
			"value": Long(2),
			"next":  Null(),
		}),
	})

	out := roundTrip(t, s, v)
	require.True(t, Equal(v, out), "got %s want %s", out, v)
}

func TestPlan_NestedComposite(t *testing.T) {
	s := schema.MustParse(`{
		"type": "record",
		"name": "Doc",
		"fields": [
			{"name": "attrs", "type": {"type": "map", "values": ["null", "string"]}},
			{"name": "rows", "type": {"type": "array", "items": {"type": "array", "items": "double"}}}
		]
	}`)

	v := Record(map[string]Value{
		"attrs": Map(map[string]Value{"title": String("t"), "subtitle": Null()}),
		"rows":  Array(Array(Double(1), Double(2)), Array()),
	})

	out := roundTrip(t, s, v)
	require.True(t, Equal(v, out), "got %s want %s", out, v)
}
