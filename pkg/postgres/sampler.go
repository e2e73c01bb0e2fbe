package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calyxdata/starschema/pkg/schema"
)

// identifierRe rejects table names that cannot be interpolated into a
// SELECT. pgx cannot bind identifiers, so this is the guard instead.
var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Sampler fetches one representative row per OLTP table so the type
// inferencer has concrete values to look at.
type Sampler struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

// NewSampler connects a pool and pings it.
func NewSampler(ctx context.Context, log *slog.Logger, cfg Config) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = 4
	poolConfig.MaxConnLifetime = time.Hour

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(pingCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log.Info("PostgreSQL sampler connected", "host", cfg.Host, "database", cfg.Database)

	return &Sampler{log: log, pool: pool}, nil
}

// SampleRow returns the first row of the table as a column→value map.
// An empty table yields NoSampleDataError so callers can distinguish
// "nothing to infer from" from connection failures.
func (s *Sampler) SampleRow(ctx context.Context, table string) (map[string]any, error) {
	if !identifierRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 1", table))
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read sample from %s: %w", table, err)
		}
		return nil, &schema.NoSampleDataError{Table: table}
	}

	values, err := rows.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to decode sample from %s: %w", table, err)
	}

	sample := make(map[string]any, len(values))
	for i, fd := range rows.FieldDescriptions() {
		sample[fd.Name] = values[i]
	}

	s.log.Debug("sampled row", "table", table, "columns", len(sample))
	return sample, nil
}

// SampleRows samples every listed table, failing fast on the first
// error.
func (s *Sampler) SampleRows(ctx context.Context, tables []string) (map[string]map[string]any, error) {
	samples := make(map[string]map[string]any, len(tables))
	for _, t := range tables {
		sample, err := s.SampleRow(ctx, t)
		if err != nil {
			return nil, err
		}
		samples[t] = sample
	}
	return samples, nil
}

// Close releases the pool.
func (s *Sampler) Close() {
	s.pool.Close()
}

// IsEmptyTable reports whether err is the empty-table sampling error.
func IsEmptyTable(err error) bool {
	var empty *schema.NoSampleDataError
	return errors.As(err, &empty)
}
