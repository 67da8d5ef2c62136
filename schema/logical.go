package schema

// Logical type names recognized by the parser. An unrecognized name, or a
// recognized name over an incompatible base schema, degrades silently to the
// base schema.
const (
	LogicalDecimal         = "decimal"
	LogicalUUID            = "uuid"
	LogicalDate            = "date"
	LogicalTimeMillis      = "time-millis"
	LogicalTimeMicros      = "time-micros"
	LogicalTimestampMillis = "timestamp-millis"
	LogicalTimestampMicros = "timestamp-micros"
	LogicalDuration        = "duration"
)

// DurationSize is the fixed size required by the duration logical type:
// three little-endian uint32 fields (months, days, milliseconds).
const DurationSize = 12

// LogicalType is an annotation layered on a base schema that assigns
// interpretation without changing the wire encoding.
type LogicalType struct {
	name string

	// Decimal parameters; zero for other logical types.
	precision int
	scale     int
}

// NewLogicalType creates a plain logical annotation with no parameters.
func NewLogicalType(name string) *LogicalType {
	return &LogicalType{name: name}
}

// NewDecimalLogicalType creates a decimal annotation with the given precision
// and scale.
func NewDecimalLogicalType(precision, scale int) *LogicalType {
	return &LogicalType{name: LogicalDecimal, precision: precision, scale: scale}
}

func (l *LogicalType) Name() string   { return l.name }
func (l *LogicalType) Precision() int { return l.precision }
func (l *LogicalType) Scale() int     { return l.scale }

// validLogical reports whether the named logical type is compatible with the
// given base. fixedSize is only meaningful when base is TypeFixed.
func validLogical(name string, base Type, fixedSize int) bool {
	switch name {
	case LogicalDecimal:
		return base == TypeBytes || base == TypeFixed
	case LogicalUUID:
		return base == TypeString
	case LogicalDate, LogicalTimeMillis:
		return base == TypeInt
	case LogicalTimeMicros, LogicalTimestampMillis, LogicalTimestampMicros:
		return base == TypeLong
	case LogicalDuration:
		return base == TypeFixed && fixedSize == DurationSize
	default:
		return false
	}
}

// decimalFitsFixed reports whether a decimal of the given precision fits in
// size bytes of two's-complement representation.
//
// size bytes hold floor(log10(2^(8*size-1))) decimal digits.
func decimalFitsFixed(precision, size int) bool {
	if size <= 0 {
		return false
	}

	// Integer fixed-point arithmetic avoids floating point: log10(2) is scaled
	// by 1e6 and the product truncated to whole digits.
	// 2^(8*size-1) >= 10^precision  <=>  (8*size-1)*log10(2) >= precision
	const log10of2x1e6 = 301030 // log10(2) * 1e6, truncated

	maxDigits := (8*size - 1) * log10of2x1e6 / 1000000

	return precision <= maxDigits
}
