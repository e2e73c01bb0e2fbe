// Package schema infers ClickHouse-oriented column types from sampled
// OLTP records. It is the typing layer under the star-schema model
// builder: callers hand it a single sampled row (field name to scalar)
// and get back a closed set of column type tags.
package schema

import "fmt"

// ColumnType is the closed set of column type tags the inferencer can
// produce. The tags are ClickHouse base type names; rendering for other
// columnar engines is the DDL emitter's concern.
type ColumnType string

const (
	TypeInt64    ColumnType = "Int64"
	TypeFloat64  ColumnType = "Float64"
	TypeString   ColumnType = "String"
	TypeBool     ColumnType = "Bool"
	TypeDateTime ColumnType = "DateTime"
	TypeUnknown  ColumnType = "Unknown"
)

// Column is a single typed column of a table model.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
	// DDL, when set, is emitted verbatim instead of the mapped Type.
	// Used for engine types outside the inference set, like the UInt64
	// replication version column.
	DDL string
}

// DDLType returns the rendered type for DDL output, wrapping nullable
// columns in Nullable(...). Unknown maps to String so a table built
// from a sparse sample still has a loadable shape.
func (c Column) DDLType() string {
	if c.DDL != "" {
		return c.DDL
	}
	t := c.Type
	if t == TypeUnknown {
		t = TypeString
	}
	if c.Nullable {
		return fmt.Sprintf("Nullable(%s)", t)
	}
	return string(t)
}
