package ddl

import (
	"fmt"
	"strings"
)

// ScriptOptions configures the generated deployment script. EnvPrefix
// names the environment variables the script reads (default
// CLICKHOUSE, giving CLICKHOUSE_HOST and friends); the defaults below
// match a local ClickHouse with the stock HTTP port.
type ScriptOptions struct {
	EnvPrefix       string
	DefaultHost     string
	DefaultPort     int
	DefaultUser     string
	DefaultPassword string
}

func (o ScriptOptions) withDefaults() ScriptOptions {
	if o.EnvPrefix == "" {
		o.EnvPrefix = "CLICKHOUSE"
	}
	if o.DefaultHost == "" {
		o.DefaultHost = "localhost"
	}
	if o.DefaultPort == 0 {
		o.DefaultPort = 8123
	}
	if o.DefaultUser == "" {
		o.DefaultUser = "default"
	}
	return o
}

// RenderDeployScript wraps DDL statements in a bash script that POSTs
// each statement to the target store's HTTP query endpoint. Connection
// parameters come from environment variables with documented defaults,
// so the script is copy-paste runnable against a local instance.
func RenderDeployScript(statements []string, opts ScriptOptions) string {
	o := opts.withDefaults()
	p := o.EnvPrefix

	var b strings.Builder
	b.WriteString("#!/usr/bin/env bash\n")
	b.WriteString("# Deploys the generated star schema over the HTTP query endpoint.\n")
	b.WriteString("set -euo pipefail\n\n")
	fmt.Fprintf(&b, "%s_HOST=\"${%s_HOST:-%s}\"\n", p, p, o.DefaultHost)
	fmt.Fprintf(&b, "%s_PORT=\"${%s_PORT:-%d}\"\n", p, p, o.DefaultPort)
	fmt.Fprintf(&b, "%s_USER=\"${%s_USER:-%s}\"\n", p, p, o.DefaultUser)
	fmt.Fprintf(&b, "%s_PASSWORD=\"${%s_PASSWORD:-%s}\"\n\n", p, p, o.DefaultPassword)
	fmt.Fprintf(&b, "url=\"http://${%s_HOST}:${%s_PORT}/\"\n\n", p, p)
	b.WriteString("run_statement() {\n")
	fmt.Fprintf(&b, "    curl -sS --fail-with-body -X POST \"${url}\" \\\n        --user \"${%s_USER}:${%s_PASSWORD}\" \\\n        --data-binary @-\n", p, p)
	b.WriteString("}\n")

	for _, stmt := range statements {
		b.WriteString("\nrun_statement <<'SQL'\n")
		b.WriteString(stmt)
		if !strings.HasSuffix(stmt, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("SQL\n")
	}

	return b.String()
}
