// Package ddl renders star-schema table models and dictionary models
// into ClickHouse DDL text, and wraps generated statements into a
// deployment script for the HTTP query endpoint.
//
// Identifiers (table, column, and database names) are emitted verbatim,
// without quoting or escaping; only string literals are quoted. That is
// acceptable for trusted, code-declared schemas but is an injection
// surface if table or field names ever come from untrusted input.
package ddl

import (
	"fmt"
	"strings"

	"github.com/calyxdata/starschema/pkg/star"
)

// EngineStrategy produces the engine tail of a CREATE TABLE statement
// (ENGINE, PARTITION BY, ORDER BY clauses) for a table model. The
// strategy is the only dialect-specific part of table rendering, so
// other columnar engines can be targeted without touching the model
// builder.
type EngineStrategy interface {
	TableEngine(m *star.TableModel) (string, error)
}

// MergeTreeStrategy is the default ClickHouse strategy. Dimensions get
// a ReplacingMergeTree ordered by the primary key, which deduplicates
// re-snapshotted entities; replicated dimensions version it with the
// lsn column and tombstone on is_deleted so the newest CDC event wins
// and deletes are honored at merge time. Facts get an append-optimized
// MergeTree partitioned by the month of the timestamp field and
// ordered by the dimension keys plus timestamp.
type MergeTreeStrategy struct{}

func (MergeTreeStrategy) TableEngine(m *star.TableModel) (string, error) {
	switch m.Kind {
	case star.KindDimension:
		engine := "ReplacingMergeTree()"
		if m.Replicated {
			engine = "ReplacingMergeTree(lsn, is_deleted)"
		}
		return fmt.Sprintf("ENGINE = %s\nORDER BY (%s)", engine, strings.Join(m.PrimaryKey, ", ")), nil

	case star.KindFact:
		var b strings.Builder
		b.WriteString("ENGINE = MergeTree()")
		if m.TimestampField != "" {
			fmt.Fprintf(&b, "\nPARTITION BY toYYYYMM(%s)", m.TimestampField)
		}
		order := make([]string, 0, len(m.DimensionKeys)+1)
		order = append(order, m.DimensionKeys...)
		if m.TimestampField != "" {
			order = append(order, m.TimestampField)
		}
		if len(order) == 0 {
			order = append(order, m.PrimaryKey...)
		}
		fmt.Fprintf(&b, "\nORDER BY (%s)", strings.Join(order, ", "))
		return b.String(), nil

	default:
		return "", fmt.Errorf("table %s: unknown table kind %q", m.Name, m.Kind)
	}
}
