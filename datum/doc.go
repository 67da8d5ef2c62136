// Package datum defines the tagged value variant the container codec
// operates on, and compiles schemas into write and read plans over the
// primitive codec.
//
// The core never reflects over native Go types: applications convert their
// own values into datum.Value, and a WritePlan or ReadPlan walks value and
// schema together. A write plan validates each value against the writer
// schema as it encodes; a read plan optionally resolves a writer schema
// against a different reader schema, applying Avro's promotion, field
// matching and default rules.
//
// Plans are immutable after compilation and safe for concurrent use; the
// encoder or decoder passed to each call carries all mutable state.
package datum
