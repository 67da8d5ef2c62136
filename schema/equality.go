package schema

import "reflect"

// Equal reports whether two schemas are structurally equal.
//
// Named types compare by fully-qualified name first, then recursively by
// shape, so two documents that bind the same name to different structures are
// told apart. Documentation strings and aliases do not participate; field
// defaults do. References are transparent: a back-reference equals the
// definition it points to.
func Equal(a, b Schema) bool {
	return equal(a, b, make(map[[2]string]bool))
}

// equal compares with a visited set of named-type pairs so cyclic schemas
// terminate: once a pair of names is under comparison, re-encountering it is
// taken as equal.
func equal(a, b Schema, visited map[[2]string]bool) bool {
	a = Resolve(a)
	b = Resolve(b)

	if a.Type() != b.Type() {
		return false
	}

	if na, ok := a.(NamedSchema); ok {
		nb, _ := b.(NamedSchema)
		if na.FullName() != nb.FullName() {
			return false
		}

		pair := [2]string{na.FullName(), nb.FullName()}
		if visited[pair] {
			return true
		}
		visited[pair] = true
	}

	switch va := a.(type) {
	case *PrimitiveSchema:
		vb := b.(*PrimitiveSchema)
		return logicalEqual(va.logical, vb.logical)
	case *RecordSchema:
		vb := b.(*RecordSchema)
		if len(va.fields) != len(vb.fields) {
			return false
		}

		for i, fa := range va.fields {
			fb := vb.fields[i]
			if fa.name != fb.name || fa.hasDefault != fb.hasDefault {
				return false
			}

			if fa.hasDefault && !reflect.DeepEqual(fa.def, fb.def) {
				return false
			}

			if !equal(fa.typ, fb.typ, visited) {
				return false
			}
		}

		return true
	case *EnumSchema:
		vb := b.(*EnumSchema)
		if len(va.symbols) != len(vb.symbols) {
			return false
		}

		for i, symbol := range va.symbols {
			if symbol != vb.symbols[i] {
				return false
			}
		}

		return true
	case *ArraySchema:
		return equal(va.items, b.(*ArraySchema).items, visited)
	case *MapSchema:
		return equal(va.values, b.(*MapSchema).values, visited)
	case *UnionSchema:
		vb := b.(*UnionSchema)
		if len(va.branches) != len(vb.branches) {
			return false
		}

		for i, branch := range va.branches {
			if !equal(branch, vb.branches[i], visited) {
				return false
			}
		}

		return true
	case *FixedSchema:
		vb := b.(*FixedSchema)
		return va.size == vb.size && logicalEqual(va.logical, vb.logical)
	default:
		return false
	}
}

func logicalEqual(a, b *LogicalType) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.name == b.name && a.precision == b.precision && a.scale == b.scale
}
