// Package star builds in-memory star-schema table models (dimensions
// and facts) from sampled records or typed struct definitions, and
// aggregates them in a Generator for bulk DDL emission.
package star

import (
	"fmt"

	"github.com/calyxdata/starschema/pkg/schema"
)

// TableKind partitions table models into the two star-schema roles.
type TableKind string

const (
	KindDimension TableKind = "dimension"
	KindFact      TableKind = "fact"
)

// Aggregation tags a fact measure with its intended rollup.
type Aggregation string

const (
	AggSum   Aggregation = "sum"
	AggCount Aggregation = "count"
	AggAvg   Aggregation = "avg"
	AggMin   Aggregation = "min"
	AggMax   Aggregation = "max"
)

// Measure is a fact-table column paired with its aggregation.
type Measure struct {
	Column      string
	Aggregation Aggregation
}

// TableModel is the provenance-agnostic table shape both the sampled
// and the typed builder paths converge on. The DDL emitter consumes it
// without knowing which path produced it.
type TableModel struct {
	Name           string
	Kind           TableKind
	Columns        []schema.Column
	PrimaryKey     []string
	Measures       []Measure
	DimensionKeys  []string
	TimestampField string
	// Replicated marks tables fed by CDC replication. They carry the
	// bookkeeping columns from ReplicationColumns, and dimensions get
	// a versioned engine so updates collapse to the latest row and
	// deletes survive as tombstones.
	Replicated bool
}

// ReplicationColumns are the bookkeeping columns appended to every
// replicated table: is_deleted flags tombstones, lsn orders versions
// of the same entity.
func ReplicationColumns() []schema.Column {
	return []schema.Column{
		{Name: "is_deleted", Type: schema.TypeInt64, DDL: "Int8"},
		{Name: "lsn", Type: schema.TypeInt64, DDL: "UInt64"},
	}
}

// applyReplication marks the model replicated and appends the
// bookkeeping columns, skipping any the source already declares.
func applyReplication(m *TableModel, replicated bool) {
	if !replicated {
		return
	}
	m.Replicated = true
	for _, c := range ReplicationColumns() {
		if !m.HasColumn(c.Name) {
			m.Columns = append(m.Columns, c)
		}
	}
}

// HasColumn reports whether the model declares a column with the name.
func (m *TableModel) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants: unique column names,
// primary key columns present, and for facts that dimension keys and
// the timestamp field reference declared columns.
func (m *TableModel) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("table model has no name")
	}
	if len(m.Columns) == 0 {
		return fmt.Errorf("table %s: model has no columns", m.Name)
	}

	seen := make(map[string]struct{}, len(m.Columns))
	for _, c := range m.Columns {
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("table %s: duplicate column %q", m.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	if len(m.PrimaryKey) == 0 {
		return fmt.Errorf("table %s: model has no primary key", m.Name)
	}
	for _, pk := range m.PrimaryKey {
		if !m.HasColumn(pk) {
			return fmt.Errorf("table %s: primary key column %q not declared", m.Name, pk)
		}
	}

	if m.Replicated {
		for _, c := range ReplicationColumns() {
			if !m.HasColumn(c.Name) {
				return fmt.Errorf("table %s: replicated model missing bookkeeping column %q", m.Name, c.Name)
			}
		}
	}

	if m.Kind == KindFact {
		for _, k := range m.DimensionKeys {
			if !m.HasColumn(k) {
				return fmt.Errorf("table %s: dimension key %q not declared", m.Name, k)
			}
		}
		if m.TimestampField != "" && !m.HasColumn(m.TimestampField) {
			return fmt.Errorf("table %s: timestamp field %q not declared", m.Name, m.TimestampField)
		}
		for _, meas := range m.Measures {
			if !m.HasColumn(meas.Column) {
				return fmt.Errorf("table %s: measure column %q not declared", m.Name, meas.Column)
			}
		}
	}

	return nil
}

// resolvePrimaryKey applies the primary-key fallback chain: an explicit
// key wins; else a column literally named "id"; else the first declared
// column. The final fallback silently picks a possibly unintended key
// for tables without an id column; it is kept for parity with the
// descriptor format this package replaces.
func resolvePrimaryKey(explicit []string, columns []schema.Column) []string {
	if len(explicit) > 0 {
		return explicit
	}
	for _, c := range columns {
		if c.Name == "id" {
			return []string{"id"}
		}
	}
	if len(columns) > 0 {
		return []string{columns[0].Name}
	}
	return nil
}
