// Package schema implements the Avro schema model and its JSON projection.
//
// A schema is an immutable tree of typed nodes, possibly cyclic through named
// back-references. Named types (record, enum, fixed) are registered in a
// per-document symbol table keyed by fully-qualified name; later textual
// occurrences of the same name resolve to the registered node instead of
// redefining it. There is no global registry: every Parse call builds its own
// table, and parsed schemas may be freely shared across goroutines.
//
// The package covers the full schema lifecycle the container format needs:
// parsing the three JSON shapes Avro mandates (bare string, array union,
// object), canonical re-emission with seen-name tracking, structural
// equality, and CRC-64-AVRO fingerprints over the canonical form.
package schema
