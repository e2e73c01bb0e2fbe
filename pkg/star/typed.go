package star

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/calyxdata/starschema/pkg/schema"
)

// DimensionConfig is the type-safe counterpart of DimensionOptions: the
// column list comes from the struct type, not a sample record, and the
// metadata here is trusted verbatim.
type DimensionConfig struct {
	KeyField   string
	PrimaryKey []string
	// Replicated appends the CDC bookkeeping columns (is_deleted, lsn).
	Replicated bool
}

// FactConfig is the type-safe counterpart of FactOptions.
type FactConfig struct {
	Measures       []Measure
	DimensionKeys  []string
	TimestampField string
	PrimaryKey     []string
	Replicated     bool
}

// DefineDimension builds a dimension table model from the struct type T
// without touching a sample record. Field order follows the struct's
// declaration order; column names come from `ch:"name"` tags, falling
// back to snake_case of the field name. The result has the same shape
// BuildDimension produces, so the DDL emitter cannot tell them apart.
func DefineDimension[T any](name string, cfg DimensionConfig) (*TableModel, error) {
	columns, err := structColumns[T](name)
	if err != nil {
		return nil, err
	}

	pk := cfg.PrimaryKey
	if len(pk) == 0 && cfg.KeyField != "" {
		pk = []string{cfg.KeyField}
	}

	model := &TableModel{
		Name:       name,
		Kind:       KindDimension,
		Columns:    columns,
		PrimaryKey: resolvePrimaryKey(pk, columns),
	}
	applyReplication(model, cfg.Replicated)
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

// DefineFact builds a fact table model from the struct type T without a
// sample record. Measures, dimension keys, and the timestamp field must
// name struct-derived columns; validation catches descriptor drift.
func DefineFact[T any](name string, cfg FactConfig) (*TableModel, error) {
	columns, err := structColumns[T](name)
	if err != nil {
		return nil, err
	}

	model := &TableModel{
		Name:           name,
		Kind:           KindFact,
		Columns:        columns,
		PrimaryKey:     resolvePrimaryKey(cfg.PrimaryKey, columns),
		Measures:       cfg.Measures,
		DimensionKeys:  cfg.DimensionKeys,
		TimestampField: cfg.TimestampField,
	}
	applyReplication(model, cfg.Replicated)
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

// structColumns derives the typed column list from T's exported fields
// in declaration order. Pointer fields become nullable columns.
func structColumns[T any](table string) ([]schema.Column, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("table %s: type parameter must be a struct, got %v", table, t)
	}

	columns := make([]schema.Column, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		colName := field.Tag.Get("ch")
		if colName == "-" {
			continue
		}
		if colName == "" {
			colName = camelToSnake(field.Name)
		}

		ft := field.Type
		nullable := false
		if ft.Kind() == reflect.Pointer {
			nullable = true
			ft = ft.Elem()
		}

		columns = append(columns, schema.Column{
			Name:     colName,
			Type:     columnTypeFor(ft),
			Nullable: nullable,
		})
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s: struct has no exported fields", table)
	}
	return columns, nil
}

var timeType = reflect.TypeOf(time.Time{})

// columnTypeFor maps a Go field type onto the closed ColumnType set,
// mirroring the value-based inference rules so both builder paths agree.
func columnTypeFor(t reflect.Type) schema.ColumnType {
	if t == timeType {
		return schema.TypeDateTime
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return schema.TypeInt64
	case reflect.Float32, reflect.Float64:
		return schema.TypeFloat64
	case reflect.Bool:
		return schema.TypeBool
	case reflect.String:
		return schema.TypeString
	default:
		return schema.TypeString
	}
}

func camelToSnake(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteByte('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
