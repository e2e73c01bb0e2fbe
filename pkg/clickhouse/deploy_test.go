package clickhouse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStarSchema_ClickHouse_SplitStatements(t *testing.T) {
	t.Parallel()

	ddl := "CREATE TABLE IF NOT EXISTS dim_customer (\n    id Int64\n) ENGINE = ReplacingMergeTree()\nORDER BY (id);\n\nCREATE TABLE IF NOT EXISTS fact_order (\n    id Int64\n) ENGINE = MergeTree()\nORDER BY (id);"

	statements := SplitStatements(ddl)
	require.Len(t, statements, 2)
	require.Contains(t, statements[0], "dim_customer")
	require.Contains(t, statements[1], "fact_order")

	require.Empty(t, SplitStatements("  \n\n \n"))
}

func TestStarSchema_ClickHouse_StatementName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"CREATE TABLE IF NOT EXISTS dim_customer (id Int64)":       "dim_customer",
		"DROP TABLE IF EXISTS fact_order;":                         "fact_order",
		"CREATE DICTIONARY IF NOT EXISTS analytics.customer_dict (": "analytics.customer_dict",
		"SELECT 1": "SELECT 1",
	}
	for stmt, want := range cases {
		require.Equal(t, want, statementName(stmt), stmt)
	}
}
