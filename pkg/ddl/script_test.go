package ddl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStarSchema_DDL_DeployScript(t *testing.T) {
	t.Parallel()

	statements := []string{
		"CREATE TABLE IF NOT EXISTS dim_customer (\n    id Int64\n) ENGINE = ReplacingMergeTree()\nORDER BY (id);",
		"DROP TABLE IF EXISTS dim_customer;",
	}

	script := RenderDeployScript(statements, ScriptOptions{})

	require.True(t, strings.HasPrefix(script, "#!/usr/bin/env bash"))
	require.Contains(t, script, `CLICKHOUSE_HOST="${CLICKHOUSE_HOST:-localhost}"`)
	require.Contains(t, script, `CLICKHOUSE_PORT="${CLICKHOUSE_PORT:-8123}"`)
	require.Contains(t, script, `CLICKHOUSE_USER="${CLICKHOUSE_USER:-default}"`)
	require.Contains(t, script, `CLICKHOUSE_PASSWORD="${CLICKHOUSE_PASSWORD:-}"`)
	require.Contains(t, script, "CREATE TABLE IF NOT EXISTS dim_customer")
	require.Equal(t, 2, strings.Count(script, "run_statement <<'SQL'"))
}

func TestStarSchema_DDL_DeployScriptCustomPrefix(t *testing.T) {
	t.Parallel()

	script := RenderDeployScript([]string{"SELECT 1;"}, ScriptOptions{
		EnvPrefix:   "WAREHOUSE",
		DefaultHost: "warehouse.internal",
		DefaultPort: 9000,
	})

	require.Contains(t, script, `WAREHOUSE_HOST="${WAREHOUSE_HOST:-warehouse.internal}"`)
	require.Contains(t, script, `WAREHOUSE_PORT="${WAREHOUSE_PORT:-9000}"`)
	require.NotContains(t, script, "CLICKHOUSE_HOST")
}
