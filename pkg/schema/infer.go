package schema

import (
	"math"
	"time"
)

// timestampLayouts are the string layouts the inferencer recognizes as
// timestamps, most specific first. Sampled rows arriving through JSON
// or pgx text mode carry timestamps as strings, so string inspection is
// part of the contract, not a convenience.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Infer derives a column type tag from a single sampled value, plus
// whether the column should be nullable. Classification priority:
//
//  1. nil -> Unknown, nullable
//  2. time.Time or ISO-8601-parseable string -> DateTime
//  3. integral numeric -> Int64; fractional numeric -> Float64
//  4. bool -> Bool
//  5. anything else -> String
func Infer(value any) (ColumnType, bool) {
	if value == nil {
		return TypeUnknown, true
	}

	switch v := value.(type) {
	case time.Time:
		return TypeDateTime, false
	case *time.Time:
		if v == nil {
			return TypeDateTime, true
		}
		return TypeDateTime, false
	case string:
		if isTimestampString(v) {
			return TypeDateTime, false
		}
		return TypeString, false
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInt64, false
	case float32:
		return inferFloat(float64(v)), false
	case float64:
		return inferFloat(v), false
	case bool:
		return TypeBool, false
	default:
		return TypeString, false
	}
}

// inferFloat splits numerics the way the sampled values arrive from
// JSON decoders, where every number is a float64: an integral value is
// an Int64 column, a fractional one a Float64.
func inferFloat(v float64) ColumnType {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return TypeFloat64
	}
	if v == math.Trunc(v) {
		return TypeInt64
	}
	return TypeFloat64
}

func isTimestampString(s string) bool {
	if len(s) < len("2006-01-02") {
		return false
	}
	// Cheap shape check before attempting parses: ISO-8601 dates start
	// with a 4-digit year and a dash.
	if s[4] != '-' {
		return false
	}
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
