package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/arloliu/avrofile/errs"
	"github.com/arloliu/avrofile/internal/hash"
)

// nameRegexp constrains type names, name components, field names and enum
// symbols.
var nameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// parseCacheEntry memoizes a parsed document. The original text is kept so a
// 64-bit hash collision cannot alias two different documents.
type parseCacheEntry struct {
	text   string
	schema Schema
}

var parseCache sync.Map // uint64 -> parseCacheEntry

// Parse parses an Avro schema JSON document into a schema tree.
//
// The three JSON shapes Avro mandates are accepted: a bare string (primitive
// name or named-type reference), a JSON array (anonymous union), or a JSON
// object with a "type" field. Named types are registered into a symbol table
// scoped to this document; later occurrences of a registered name are
// back-references.
//
// Parse results are memoized: repeated calls with a textually identical
// document return the same immutable schema tree.
//
// Returns:
//   - Schema: Root of the parsed schema tree
//   - error: errs.ErrSchemaParse when the document is syntactically invalid
//     or structurally illegal
func Parse(text string) (Schema, error) {
	key := hash.ID(text)
	if cached, ok := parseCache.Load(key); ok {
		entry, _ := cached.(parseCacheEntry)
		if entry.text == text {
			return entry.schema, nil
		}
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrSchemaParse, err)
	}

	p := &parser{symbols: make(map[string]NamedSchema)}

	s, err := p.parse(doc, "")
	if err != nil {
		return nil, err
	}

	parseCache.Store(key, parseCacheEntry{text: text, schema: s})

	return s, nil
}

// ParseBytes parses a schema document held as raw bytes.
func ParseBytes(text []byte) (Schema, error) {
	return Parse(string(text))
}

// MustParse parses a schema document and panics on error. Intended for
// schemas known valid at compile time.
func MustParse(text string) Schema {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}

	return s
}

// parser carries the per-document symbol table.
type parser struct {
	symbols map[string]NamedSchema
}

func parseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrSchemaParse, fmt.Sprintf(format, args...))
}

// parse dispatches on the JSON shape of v. namespace is the enclosing
// namespace used to resolve unqualified names.
func (p *parser) parse(v any, namespace string) (Schema, error) {
	switch val := v.(type) {
	case string:
		return p.parseTypeName(val, namespace)
	case []any:
		return p.parseUnion(val, namespace)
	case map[string]any:
		return p.parseObject(val, namespace)
	default:
		return nil, parseErrorf("schema must be a string, array or object, got %T", v)
	}
}

// parseTypeName handles the bare-string shape: a primitive name or a
// reference to a previously defined named type.
func (p *parser) parseTypeName(name string, namespace string) (Schema, error) {
	if primitiveTypes[Type(name)] {
		return NewPrimitiveSchema(Type(name), nil), nil
	}

	if target, ok := p.lookup(name, namespace); ok {
		return &RefSchema{target: target}, nil
	}

	return nil, parseErrorf("undefined type name %q", name)
}

// lookup resolves a possibly unqualified name against the symbol table.
func (p *parser) lookup(name string, namespace string) (NamedSchema, bool) {
	qname := splitFullName(name)
	if qname.Namespace == "" && namespace != "" {
		if target, ok := p.symbols[namespace+"."+name]; ok {
			return target, true
		}
	}

	target, ok := p.symbols[name]

	return target, ok
}

// parseUnion handles the array shape: an anonymous union.
func (p *parser) parseUnion(branches []any, namespace string) (Schema, error) {
	if len(branches) == 0 {
		return nil, parseErrorf("union must have at least one branch")
	}

	union := &UnionSchema{branches: make([]Schema, 0, len(branches))}
	seen := make(map[string]bool, len(branches))

	for i, b := range branches {
		branch, err := p.parse(b, namespace)
		if err != nil {
			return nil, err
		}

		if Resolve(branch).Type() == TypeUnion {
			return nil, parseErrorf("union branch %d is a directly nested union", i)
		}

		key := unionBranchKey(branch)
		if seen[key] {
			return nil, parseErrorf("union has duplicate branch %q", key)
		}
		seen[key] = true

		union.branches = append(union.branches, branch)
	}

	return union, nil
}

// unionBranchKey returns the uniqueness key of a union branch: named types by
// fully-qualified name, everything else by Avro type tag.
func unionBranchKey(s Schema) string {
	if named, ok := Resolve(s).(NamedSchema); ok {
		return named.FullName()
	}

	return string(Resolve(s).Type())
}

// parseObject handles the object shape.
func (p *parser) parseObject(obj map[string]any, namespace string) (Schema, error) {
	typeVal, ok := obj["type"]
	if !ok {
		return nil, parseErrorf("schema object has no \"type\" attribute")
	}

	// A non-string "type" is itself a schema, e.g. {"type": ["null", "int"]}.
	typeName, ok := typeVal.(string)
	if !ok {
		return p.parse(typeVal, namespace)
	}

	switch Type(typeName) {
	case TypeRecord:
		return p.parseRecord(obj, namespace)
	case TypeEnum:
		return p.parseEnum(obj, namespace)
	case TypeArray:
		return p.parseArray(obj, namespace)
	case TypeMap:
		return p.parseMap(obj, namespace)
	case TypeFixed:
		return p.parseFixed(obj, namespace)
	default:
		if primitiveTypes[Type(typeName)] {
			logical := parseLogical(obj, Type(typeName), 0)
			return NewPrimitiveSchema(Type(typeName), logical), nil
		}

		// Object form around a reference, e.g. {"type": "my.Named"}.
		return p.parseTypeName(typeName, namespace)
	}
}

// parseName extracts and validates the name/namespace attributes of a named
// type, returning the qualified name and the namespace its children inherit.
func (p *parser) parseName(obj map[string]any, namespace string) (QName, error) {
	raw, ok := obj["name"].(string)
	if !ok || raw == "" {
		return QName{}, parseErrorf("named type requires a non-empty \"name\"")
	}

	qname := splitFullName(raw)
	if qname.Namespace == "" {
		if ns, ok := obj["namespace"].(string); ok {
			qname.Namespace = ns
		} else {
			qname.Namespace = namespace
		}
	}

	if !nameRegexp.MatchString(qname.Name) {
		return QName{}, parseErrorf("invalid name %q", qname.Name)
	}

	if primitiveTypes[Type(qname.Name)] {
		return QName{}, parseErrorf("name %q conflicts with a primitive type", qname.Name)
	}

	if qname.Namespace != "" {
		for _, part := range strings.Split(qname.Namespace, ".") {
			if !nameRegexp.MatchString(part) {
				return QName{}, parseErrorf("invalid namespace %q", qname.Namespace)
			}
		}
	}

	return qname, nil
}

// register adds a named schema to the symbol table, rejecting redefinitions.
func (p *parser) register(s NamedSchema) error {
	full := s.FullName()
	if _, exists := p.symbols[full]; exists {
		return parseErrorf("duplicate definition of named type %q", full)
	}

	p.symbols[full] = s

	return nil
}

func parseAliases(obj map[string]any) []string {
	raw, ok := obj["aliases"].([]any)
	if !ok {
		return nil
	}

	aliases := make([]string, 0, len(raw))
	for _, a := range raw {
		if s, ok := a.(string); ok {
			aliases = append(aliases, s)
		}
	}

	return aliases
}

func parseDoc(obj map[string]any) string {
	doc, _ := obj["doc"].(string)
	return doc
}

func (p *parser) parseRecord(obj map[string]any, namespace string) (Schema, error) {
	qname, err := p.parseName(obj, namespace)
	if err != nil {
		return nil, err
	}

	rec := &RecordSchema{
		qname:   qname,
		aliases: parseAliases(obj),
		doc:     parseDoc(obj),
	}

	// Register before parsing fields so the record may refer to itself.
	if err := p.register(rec); err != nil {
		return nil, err
	}

	rawFields, ok := obj["fields"].([]any)
	if !ok {
		return nil, parseErrorf("record %q requires a \"fields\" array", qname.FullName())
	}

	rec.fields = make([]*Field, 0, len(rawFields))
	rec.fieldIdx = make(map[string]int, len(rawFields))

	for i, rawField := range rawFields {
		fieldObj, ok := rawField.(map[string]any)
		if !ok {
			return nil, parseErrorf("record %q field %d is not an object", qname.FullName(), i)
		}

		field, err := p.parseField(fieldObj, qname.Namespace, i)
		if err != nil {
			return nil, fmt.Errorf("%w (record %q)", err, qname.FullName())
		}

		if _, dup := rec.fieldIdx[field.name]; dup {
			return nil, parseErrorf("record %q has duplicate field %q", qname.FullName(), field.name)
		}

		rec.fieldIdx[field.name] = len(rec.fields)
		rec.fields = append(rec.fields, field)
	}

	return rec, nil
}

func (p *parser) parseField(obj map[string]any, namespace string, position int) (*Field, error) {
	name, ok := obj["name"].(string)
	if !ok || name == "" {
		return nil, parseErrorf("field %d requires a non-empty \"name\"", position)
	}

	if !nameRegexp.MatchString(name) {
		return nil, parseErrorf("invalid field name %q", name)
	}

	typeVal, ok := obj["type"]
	if !ok {
		return nil, parseErrorf("field %q requires a \"type\"", name)
	}

	typ, err := p.parse(typeVal, namespace)
	if err != nil {
		return nil, err
	}

	field := &Field{
		name:     name,
		doc:      parseDoc(obj),
		aliases:  parseAliases(obj),
		typ:      typ,
		position: position,
	}

	if def, hasDefault := obj["default"]; hasDefault {
		field.hasDefault = true
		field.def = def
	}

	return field, nil
}

func (p *parser) parseEnum(obj map[string]any, namespace string) (Schema, error) {
	qname, err := p.parseName(obj, namespace)
	if err != nil {
		return nil, err
	}

	rawSymbols, ok := obj["symbols"].([]any)
	if !ok {
		return nil, parseErrorf("enum %q requires a \"symbols\" array", qname.FullName())
	}

	enum := &EnumSchema{
		qname:     qname,
		aliases:   parseAliases(obj),
		doc:       parseDoc(obj),
		symbols:   make([]string, 0, len(rawSymbols)),
		symbolIdx: make(map[string]int, len(rawSymbols)),
	}

	for i, raw := range rawSymbols {
		symbol, ok := raw.(string)
		if !ok || !nameRegexp.MatchString(symbol) {
			return nil, parseErrorf("enum %q symbol %d is invalid", qname.FullName(), i)
		}

		if _, dup := enum.symbolIdx[symbol]; dup {
			return nil, parseErrorf("enum %q has duplicate symbol %q", qname.FullName(), symbol)
		}

		enum.symbolIdx[symbol] = len(enum.symbols)
		enum.symbols = append(enum.symbols, symbol)
	}

	if err := p.register(enum); err != nil {
		return nil, err
	}

	return enum, nil
}

func (p *parser) parseArray(obj map[string]any, namespace string) (Schema, error) {
	itemsVal, ok := obj["items"]
	if !ok {
		return nil, parseErrorf("array requires an \"items\" schema")
	}

	items, err := p.parse(itemsVal, namespace)
	if err != nil {
		return nil, err
	}

	return &ArraySchema{items: items}, nil
}

func (p *parser) parseMap(obj map[string]any, namespace string) (Schema, error) {
	valuesVal, ok := obj["values"]
	if !ok {
		return nil, parseErrorf("map requires a \"values\" schema")
	}

	values, err := p.parse(valuesVal, namespace)
	if err != nil {
		return nil, err
	}

	return &MapSchema{values: values}, nil
}

func (p *parser) parseFixed(obj map[string]any, namespace string) (Schema, error) {
	qname, err := p.parseName(obj, namespace)
	if err != nil {
		return nil, err
	}

	rawSize, ok := obj["size"].(float64)
	if !ok || rawSize != float64(int(rawSize)) || rawSize < 0 {
		return nil, parseErrorf("fixed %q requires a non-negative integer \"size\"", qname.FullName())
	}

	fixed := &FixedSchema{
		qname:   qname,
		aliases: parseAliases(obj),
		size:    int(rawSize),
	}

	fixed.logical = parseLogical(obj, TypeFixed, fixed.size)

	if err := p.register(fixed); err != nil {
		return nil, err
	}

	return fixed, nil
}

// parseLogical extracts a logical type annotation from a schema object.
// An unrecognized logical name, an incompatible base, or invalid parameters
// all degrade silently to the base schema by returning nil.
func parseLogical(obj map[string]any, base Type, fixedSize int) *LogicalType {
	name, ok := obj["logicalType"].(string)
	if !ok {
		return nil
	}

	if !validLogical(name, base, fixedSize) {
		return nil
	}

	if name != LogicalDecimal {
		return NewLogicalType(name)
	}

	precision, ok := intAttr(obj, "precision")
	if !ok || precision <= 0 {
		return nil
	}

	scale, sok := intAttr(obj, "scale")
	if !sok {
		scale = 0
	}

	if scale < 0 || scale > precision {
		return nil
	}

	if base == TypeFixed && !decimalFitsFixed(precision, fixedSize) {
		return nil
	}

	return NewDecimalLogicalType(precision, scale)
}

// intAttr reads an integer-valued JSON attribute.
func intAttr(obj map[string]any, key string) (int, bool) {
	raw, ok := obj[key].(float64)
	if !ok || raw != float64(int(raw)) {
		return 0, false
	}

	return int(raw), true
}
