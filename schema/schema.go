package schema

import "strings"

// Type identifies a schema node variant by its Avro type name.
type Type string

const (
	TypeNull    Type = "null"
	TypeBoolean Type = "boolean"
	TypeInt     Type = "int"
	TypeLong    Type = "long"
	TypeFloat   Type = "float"
	TypeDouble  Type = "double"
	TypeBytes   Type = "bytes"
	TypeString  Type = "string"
	TypeRecord  Type = "record"
	TypeEnum    Type = "enum"
	TypeArray   Type = "array"
	TypeMap     Type = "map"
	TypeUnion   Type = "union"
	TypeFixed   Type = "fixed"
)

// primitiveTypes is the set of type names that are complete schemas on their own.
var primitiveTypes = map[Type]bool{
	TypeNull:    true,
	TypeBoolean: true,
	TypeInt:     true,
	TypeLong:    true,
	TypeFloat:   true,
	TypeDouble:  true,
	TypeBytes:   true,
	TypeString:  true,
}

// Schema is a node in an Avro schema tree.
//
// Schemas are immutable once parsed and safe for concurrent use.
type Schema interface {
	// Type returns the node's Avro type.
	Type() Type

	// String returns the canonical JSON form of the schema.
	String() string
}

// NamedSchema is implemented by the named variants: record, enum and fixed.
type NamedSchema interface {
	Schema

	// Name returns the unqualified name.
	Name() string

	// Namespace returns the namespace, which may be empty.
	Namespace() string

	// FullName returns the fully-qualified "namespace.name" identifier.
	FullName() string

	// Aliases returns alternate names accepted during resolution.
	Aliases() []string
}

// LogicalSchema is implemented by schemas that may carry a logical type
// annotation (the primitives int, long, string, bytes, and fixed).
type LogicalSchema interface {
	Schema

	// Logical returns the logical type layered on this schema, or nil.
	Logical() *LogicalType
}

// QName is a fully-qualified name split into its components.
type QName struct {
	Name      string
	Namespace string
}

// FullName returns "namespace.name", or just the name when the namespace is
// empty.
func (q QName) FullName() string {
	if q.Namespace == "" {
		return q.Name
	}

	return q.Namespace + "." + q.Name
}

// splitFullName splits a possibly dotted name into namespace and simple name.
func splitFullName(name string) QName {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return QName{Name: name}
	}

	return QName{Name: name[idx+1:], Namespace: name[:idx]}
}

// PrimitiveSchema is one of the eight primitive types, optionally annotated
// with a logical type.
type PrimitiveSchema struct {
	typ     Type
	logical *LogicalType
}

// NewPrimitiveSchema creates a primitive schema node. The logical annotation
// may be nil.
func NewPrimitiveSchema(typ Type, logical *LogicalType) *PrimitiveSchema {
	return &PrimitiveSchema{typ: typ, logical: logical}
}

func (s *PrimitiveSchema) Type() Type            { return s.typ }
func (s *PrimitiveSchema) Logical() *LogicalType { return s.logical }
func (s *PrimitiveSchema) String() string        { return Canonical(s) }

// Field is a single record field.
type Field struct {
	name       string
	doc        string
	aliases    []string
	typ        Schema
	hasDefault bool
	def        any
	position   int
}

func (f *Field) Name() string { return f.name }
func (f *Field) Doc() string  { return f.doc }
func (f *Field) Schema() Schema {
	return f.typ
}

// Position returns the field's declared order within the record.
func (f *Field) Position() int { return f.position }

// HasDefault reports whether the field declares a default value. A declared
// null default is distinct from no default.
func (f *Field) HasDefault() bool { return f.hasDefault }

// Default returns the field default as decoded JSON (nil, bool, string,
// float64, []any, or map[string]any). Only meaningful when HasDefault is true.
func (f *Field) Default() any { return f.def }

// RecordSchema is a named sequence of typed fields.
type RecordSchema struct {
	qname    QName
	aliases  []string
	doc      string
	fields   []*Field
	fieldIdx map[string]int
}

func (s *RecordSchema) Type() Type        { return TypeRecord }
func (s *RecordSchema) Name() string      { return s.qname.Name }
func (s *RecordSchema) Namespace() string { return s.qname.Namespace }
func (s *RecordSchema) FullName() string  { return s.qname.FullName() }
func (s *RecordSchema) Aliases() []string { return s.aliases }
func (s *RecordSchema) Doc() string       { return s.doc }
func (s *RecordSchema) Fields() []*Field  { return s.fields }
func (s *RecordSchema) String() string    { return Canonical(s) }

// Field returns the field with the given name, or nil.
func (s *RecordSchema) Field(name string) *Field {
	if idx, ok := s.fieldIdx[name]; ok {
		return s.fields[idx]
	}

	return nil
}

// EnumSchema is a named set of symbols encoded by index.
type EnumSchema struct {
	qname     QName
	aliases   []string
	doc       string
	symbols   []string
	symbolIdx map[string]int
}

func (s *EnumSchema) Type() Type        { return TypeEnum }
func (s *EnumSchema) Name() string      { return s.qname.Name }
func (s *EnumSchema) Namespace() string { return s.qname.Namespace }
func (s *EnumSchema) FullName() string  { return s.qname.FullName() }
func (s *EnumSchema) Aliases() []string { return s.aliases }
func (s *EnumSchema) Doc() string       { return s.doc }
func (s *EnumSchema) Symbols() []string { return s.symbols }
func (s *EnumSchema) String() string    { return Canonical(s) }

// SymbolIndex returns the index of the given symbol, or -1 when absent.
func (s *EnumSchema) SymbolIndex(symbol string) int {
	if idx, ok := s.symbolIdx[symbol]; ok {
		return idx
	}

	return -1
}

// Symbol returns the symbol at the given index, or "" when out of range.
func (s *EnumSchema) Symbol(idx int) string {
	if idx < 0 || idx >= len(s.symbols) {
		return ""
	}

	return s.symbols[idx]
}

// ArraySchema is a sequence of items of one schema.
type ArraySchema struct {
	items Schema
}

func (s *ArraySchema) Type() Type     { return TypeArray }
func (s *ArraySchema) Items() Schema  { return s.items }
func (s *ArraySchema) String() string { return Canonical(s) }

// MapSchema maps string keys to values of one schema.
type MapSchema struct {
	values Schema
}

func (s *MapSchema) Type() Type     { return TypeMap }
func (s *MapSchema) Values() Schema { return s.values }
func (s *MapSchema) String() string { return Canonical(s) }

// UnionSchema is an ordered list of branch schemas, encoded as a branch index
// followed by the branch value.
type UnionSchema struct {
	branches []Schema
}

func (s *UnionSchema) Type() Type         { return TypeUnion }
func (s *UnionSchema) Branches() []Schema { return s.branches }
func (s *UnionSchema) String() string     { return Canonical(s) }

// Nullable reports whether one of the branches is the null type.
func (s *UnionSchema) Nullable() bool {
	for _, b := range s.branches {
		if Resolve(b).Type() == TypeNull {
			return true
		}
	}

	return false
}

// FixedSchema is a named type of a fixed byte length, optionally annotated
// with a logical type (duration, decimal).
type FixedSchema struct {
	qname   QName
	aliases []string
	size    int
	logical *LogicalType
}

func (s *FixedSchema) Type() Type            { return TypeFixed }
func (s *FixedSchema) Name() string          { return s.qname.Name }
func (s *FixedSchema) Namespace() string     { return s.qname.Namespace }
func (s *FixedSchema) FullName() string      { return s.qname.FullName() }
func (s *FixedSchema) Aliases() []string     { return s.aliases }
func (s *FixedSchema) Size() int             { return s.size }
func (s *FixedSchema) Logical() *LogicalType { return s.logical }
func (s *FixedSchema) String() string        { return Canonical(s) }

// RefSchema is a back-reference to a previously defined named type. The
// referenced node is owned by the document's symbol table; the ref holds a
// non-owning link.
type RefSchema struct {
	target NamedSchema
}

func (s *RefSchema) Type() Type         { return s.target.Type() }
func (s *RefSchema) Target() NamedSchema { return s.target }
func (s *RefSchema) String() string     { return Canonical(s) }

// Resolve unwraps reference nodes to the underlying schema. Non-reference
// schemas are returned unchanged.
func Resolve(s Schema) Schema {
	if ref, ok := s.(*RefSchema); ok {
		return ref.target
	}

	return s
}
