package clickhouse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/calyxdata/starschema/pkg/retry"
)

// Deploy executes DDL statements one at a time, retrying each with
// backoff. Statements are idempotent (IF NOT EXISTS), so a retry after
// a partial failure is safe.
func Deploy(ctx context.Context, log *slog.Logger, conn Connection, statements []string) error {
	cfg := retry.DefaultConfig()

	for i, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		name := statementName(stmt)
		log.Info("applying DDL statement", "index", i+1, "total", len(statements), "object", name)

		err := retry.Do(ctx, cfg, func() error {
			return conn.Exec(ctx, stmt)
		})
		if err != nil {
			return fmt.Errorf("failed to apply DDL for %s: %w", name, err)
		}
	}

	log.Info("DDL deploy complete", "statements", len(statements))
	return nil
}

// SplitStatements splits a rendered DDL blob into individual
// statements. ClickHouse's native protocol rejects multi-statement
// Exec, so the blank-line-separated output has to be applied one by
// one.
func SplitStatements(ddl string) []string {
	parts := strings.Split(ddl, "\n\n")
	statements := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			statements = append(statements, p)
		}
	}
	return statements
}

// statementName extracts the object name from a CREATE/DROP statement
// for logging. Falls back to the statement's first few tokens.
func statementName(stmt string) string {
	fields := strings.Fields(stmt)
	for i, f := range fields {
		upper := strings.ToUpper(f)
		if upper == "TABLE" || upper == "DICTIONARY" || upper == "VIEW" {
			rest := fields[i+1:]
			for _, r := range rest {
				switch strings.ToUpper(r) {
				case "IF", "NOT", "EXISTS":
					continue
				}
				return strings.TrimSuffix(r, ";")
			}
		}
	}
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}
