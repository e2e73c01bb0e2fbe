package star

import (
	"fmt"

	"github.com/calyxdata/starschema/pkg/schema"
)

// DimensionOptions describes which fields of a sampled record make up a
// dimension table. Column order in the emitted DDL follows the order
// fields are listed here, not the sample record's own key order.
type DimensionOptions struct {
	// KeyField is the dimension's key column. It becomes the first
	// column and, unless PrimaryKey is set, the primary key.
	KeyField string
	// Attributes are the descriptive columns, in declaration order.
	Attributes []string
	// PrimaryKey overrides the key resolution entirely when set.
	PrimaryKey []string
	// Replicated appends the CDC bookkeeping columns (is_deleted, lsn)
	// so landed deletes and update ordering are preserved.
	Replicated bool
}

// FactOptions describes which fields of a sampled record make up a fact
// table. Columns are ordered measures first, then dimension keys, with
// the timestamp field last.
type FactOptions struct {
	Measures       []Measure
	DimensionKeys  []string
	TimestampField string
	// PrimaryKey overrides the default key resolution when set.
	PrimaryKey []string
	// Replicated appends the CDC bookkeeping columns (is_deleted, lsn).
	Replicated bool
}

// BuildDimension infers a dimension table model from a single sampled
// record. Every declared field must be present in the sample; a missing
// field fails with a MissingFieldError rather than defaulting.
func BuildDimension(name string, sample map[string]any, opts DimensionOptions) (*TableModel, error) {
	if len(sample) == 0 {
		return nil, &schema.NoSampleDataError{Table: name}
	}

	fields := make([]string, 0, 1+len(opts.Attributes))
	if opts.KeyField != "" {
		fields = append(fields, opts.KeyField)
	}
	fields = append(fields, opts.Attributes...)

	columns, err := inferColumns(name, sample, fields)
	if err != nil {
		return nil, err
	}

	pk := opts.PrimaryKey
	if len(pk) == 0 && opts.KeyField != "" {
		pk = []string{opts.KeyField}
	}

	model := &TableModel{
		Name:       name,
		Kind:       KindDimension,
		Columns:    columns,
		PrimaryKey: resolvePrimaryKey(pk, columns),
	}
	applyReplication(model, opts.Replicated)
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

// BuildFact infers a fact table model from a single sampled record.
// Declared measures, dimension keys, and the timestamp field must all
// exist in the sample.
func BuildFact(name string, sample map[string]any, opts FactOptions) (*TableModel, error) {
	if len(sample) == 0 {
		return nil, &schema.NoSampleDataError{Table: name}
	}

	fields := make([]string, 0, len(opts.Measures)+len(opts.DimensionKeys)+1)
	for _, m := range opts.Measures {
		fields = append(fields, m.Column)
	}
	fields = append(fields, opts.DimensionKeys...)
	if opts.TimestampField != "" {
		fields = append(fields, opts.TimestampField)
	}

	columns, err := inferColumns(name, sample, fields)
	if err != nil {
		return nil, err
	}

	model := &TableModel{
		Name:           name,
		Kind:           KindFact,
		Columns:        columns,
		PrimaryKey:     resolvePrimaryKey(opts.PrimaryKey, columns),
		Measures:       opts.Measures,
		DimensionKeys:  opts.DimensionKeys,
		TimestampField: opts.TimestampField,
	}
	applyReplication(model, opts.Replicated)
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

// inferColumns resolves each declared field against the sample record in
// declaration order, dropping duplicate declarations so a field listed
// both as key and attribute yields a single column.
func inferColumns(table string, sample map[string]any, fields []string) ([]schema.Column, error) {
	columns := make([]schema.Column, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))

	for _, field := range fields {
		if field == "" {
			return nil, fmt.Errorf("table %s: empty field name in descriptor", table)
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}

		value, ok := sample[field]
		if !ok {
			return nil, &schema.MissingFieldError{Table: table, Field: field}
		}

		ct, nullable := schema.Infer(value)
		columns = append(columns, schema.Column{Name: field, Type: ct, Nullable: nullable})
	}

	return columns, nil
}
