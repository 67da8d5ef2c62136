package schema

import (
	"encoding/json"
	"strings"
)

// Canonical renders a schema as its canonical JSON form.
//
// The canonical form is deterministic: emitting a schema, parsing the result
// and emitting again reproduces the same bytes. It is the input to
// Fingerprint and the text embedded in container-file metadata.
//
// Rules:
//   - Primitives emit as the bare type string unless a logical annotation
//     forces object form.
//   - A named type expands in full at its first occurrence and emits as its
//     fully-qualified name string afterwards, tracked per call.
//   - Object properties follow a fixed order: type, name, namespace, then the
//     variant payload (fields, symbols, items, values, size), then
//     logicalType, precision and scale.
//   - Documentation strings and aliases are stripped; they carry no wire
//     meaning. Field defaults are kept, since a schema read back from a file
//     may serve as a reader schema during resolution.
func Canonical(s Schema) string {
	var sb strings.Builder

	e := &emitter{seen: make(map[string]bool)}
	e.emit(&sb, s)

	return sb.String()
}

// emitter tracks the named types already expanded during one Canonical call.
type emitter struct {
	seen map[string]bool
}

func (e *emitter) emit(sb *strings.Builder, s Schema) {
	if ref, ok := s.(*RefSchema); ok {
		e.emitName(sb, ref.target.FullName())
		return
	}

	switch v := s.(type) {
	case *PrimitiveSchema:
		e.emitPrimitive(sb, v)
	case *RecordSchema:
		e.emitRecord(sb, v)
	case *EnumSchema:
		e.emitEnum(sb, v)
	case *ArraySchema:
		sb.WriteString(`{"type":"array","items":`)
		e.emit(sb, v.items)
		sb.WriteByte('}')
	case *MapSchema:
		sb.WriteString(`{"type":"map","values":`)
		e.emit(sb, v.values)
		sb.WriteByte('}')
	case *UnionSchema:
		sb.WriteByte('[')
		for i, b := range v.branches {
			if i > 0 {
				sb.WriteByte(',')
			}
			e.emit(sb, b)
		}
		sb.WriteByte(']')
	case *FixedSchema:
		e.emitFixed(sb, v)
	}
}

// emitName writes a fully-qualified name reference as a JSON string.
func (e *emitter) emitName(sb *strings.Builder, fullName string) {
	sb.WriteByte('"')
	sb.WriteString(fullName)
	sb.WriteByte('"')
}

func (e *emitter) emitPrimitive(sb *strings.Builder, s *PrimitiveSchema) {
	if s.logical == nil {
		sb.WriteByte('"')
		sb.WriteString(string(s.typ))
		sb.WriteByte('"')

		return
	}

	sb.WriteString(`{"type":"`)
	sb.WriteString(string(s.typ))
	sb.WriteByte('"')
	e.emitLogical(sb, s.logical)
	sb.WriteByte('}')
}

// emitNameAttrs writes the name and namespace properties shared by the named
// variants, marking the type as seen.
func (e *emitter) emitNameAttrs(sb *strings.Builder, qname QName) {
	e.seen[qname.FullName()] = true

	sb.WriteString(`,"name":`)
	writeJSONString(sb, qname.Name)

	if qname.Namespace != "" {
		sb.WriteString(`,"namespace":`)
		writeJSONString(sb, qname.Namespace)
	}
}

func (e *emitter) emitRecord(sb *strings.Builder, s *RecordSchema) {
	if e.seen[s.FullName()] {
		e.emitName(sb, s.FullName())
		return
	}

	sb.WriteString(`{"type":"record"`)
	e.emitNameAttrs(sb, s.qname)
	sb.WriteString(`,"fields":[`)

	for i, f := range s.fields {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteString(`{"name":`)
		writeJSONString(sb, f.name)
		sb.WriteString(`,"type":`)
		e.emit(sb, f.typ)

		if f.hasDefault {
			sb.WriteString(`,"default":`)
			writeJSONValue(sb, f.def)
		}

		sb.WriteByte('}')
	}

	sb.WriteString("]}")
}

func (e *emitter) emitEnum(sb *strings.Builder, s *EnumSchema) {
	if e.seen[s.FullName()] {
		e.emitName(sb, s.FullName())
		return
	}

	sb.WriteString(`{"type":"enum"`)
	e.emitNameAttrs(sb, s.qname)
	sb.WriteString(`,"symbols":[`)

	for i, symbol := range s.symbols {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeJSONString(sb, symbol)
	}

	sb.WriteString("]}")
}

func (e *emitter) emitFixed(sb *strings.Builder, s *FixedSchema) {
	if e.seen[s.FullName()] {
		e.emitName(sb, s.FullName())
		return
	}

	sb.WriteString(`{"type":"fixed"`)
	e.emitNameAttrs(sb, s.qname)
	sb.WriteString(`,"size":`)
	writeJSONValue(sb, s.size)
	e.emitLogical(sb, s.logical)
	sb.WriteByte('}')
}

func (e *emitter) emitLogical(sb *strings.Builder, l *LogicalType) {
	if l == nil {
		return
	}

	sb.WriteString(`,"logicalType":`)
	writeJSONString(sb, l.name)

	if l.name == LogicalDecimal {
		sb.WriteString(`,"precision":`)
		writeJSONValue(sb, l.precision)
		sb.WriteString(`,"scale":`)
		writeJSONValue(sb, l.scale)
	}
}

// writeJSONString writes v as a JSON string with full escaping.
func writeJSONString(sb *strings.Builder, v string) {
	raw, _ := json.Marshal(v)
	sb.Write(raw)
}

// writeJSONValue writes an arbitrary value as JSON. encoding/json sorts map
// keys, so field defaults serialize deterministically.
func writeJSONValue(sb *strings.Builder, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		sb.WriteString("null")
		return
	}

	sb.Write(raw)
}
