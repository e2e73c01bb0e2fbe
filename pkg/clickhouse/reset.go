package clickhouse

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ResetOptions controls the destructive star-schema reset.
type ResetOptions struct {
	Database    string
	DryRun      bool
	SkipConfirm bool
}

// Reset drops every star-schema object in the database: dictionaries
// first (they may read from the tables), then dim_*/fact_* tables.
// Objects outside the dim_/fact_ naming convention are left alone.
func Reset(ctx context.Context, log *slog.Logger, conn Connection, opts ResetOptions) error {
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}

	tables, err := listStarTables(ctx, conn, opts.Database)
	if err != nil {
		return err
	}

	dictionaries, err := listDictionaries(ctx, conn, opts.Database)
	if err != nil {
		return err
	}

	if len(tables) == 0 && len(dictionaries) == 0 {
		fmt.Println("No star-schema tables or dictionaries found")
		return nil
	}

	fmt.Printf("WARNING: this will DROP %d table(s) and %d dictionar(ies) from database '%s':\n\n",
		len(tables), len(dictionaries), opts.Database)
	if len(dictionaries) > 0 {
		fmt.Println("Dictionaries:")
		for _, d := range dictionaries {
			fmt.Printf("  - %s\n", d)
		}
	}
	if len(tables) > 0 {
		fmt.Println("Tables:")
		for _, t := range tables {
			fmt.Printf("  - %s\n", t)
		}
	}

	if opts.DryRun {
		fmt.Println("\n[DRY RUN] Would drop the above objects")
		return nil
	}

	if !opts.SkipConfirm {
		fmt.Printf("\nThis is a DESTRUCTIVE operation that cannot be undone!\n")
		fmt.Printf("Type 'yes' to confirm: ")

		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}

		if strings.TrimSpace(strings.ToLower(response)) != "yes" {
			fmt.Printf("\nConfirmation failed. Operation cancelled.\n")
			return nil
		}
		fmt.Println()
	}

	for _, d := range dictionaries {
		if err := conn.Exec(ctx, fmt.Sprintf("DROP DICTIONARY IF EXISTS %s", d)); err != nil {
			return fmt.Errorf("failed to drop dictionary %s: %w", d, err)
		}
		log.Info("dropped dictionary", "name", d)
	}

	for _, t := range tables {
		if err := conn.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", t)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", t, err)
		}
		log.Info("dropped table", "name", t)
	}

	fmt.Printf("\nSuccessfully dropped %d table(s) and %d dictionar(ies)\n", len(tables), len(dictionaries))
	return nil
}

func listStarTables(ctx context.Context, conn Connection, database string) ([]string, error) {
	query := `
		SELECT name
		FROM system.tables
		WHERE database = ?
		  AND engine NOT IN ('View', 'MaterializedView', 'Dictionary')
		  AND (name LIKE 'dim_%' OR name LIKE 'fact_%')
		ORDER BY name
	`

	rows, err := conn.Query(ctx, query, database)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, nil
}

func listDictionaries(ctx context.Context, conn Connection, database string) ([]string, error) {
	query := `
		SELECT name
		FROM system.dictionaries
		WHERE database = ?
		ORDER BY name
	`

	rows, err := conn.Query(ctx, query, database)
	if err != nil {
		return nil, fmt.Errorf("failed to query dictionaries: %w", err)
	}
	defer rows.Close()

	var dictionaries []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan dictionary name: %w", err)
		}
		dictionaries = append(dictionaries, name)
	}
	return dictionaries, nil
}
