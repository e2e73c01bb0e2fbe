package clickhouse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/calyxdata/starschema/pkg/star"
)

// TableSink batch-inserts CDC rows into one star-schema table. Column
// order comes from the table model, so inserts stay aligned with the
// DDL the model generated; replicated models declare the is_deleted
// and lsn bookkeeping columns, which keeps them in the insert list.
type TableSink struct {
	log   *slog.Logger
	conn  Connection
	model *star.TableModel
	query string
}

// NewTableSink builds a sink for the model's table.
func NewTableSink(log *slog.Logger, conn Connection, model *star.TableModel) *TableSink {
	cols := make([]string, 0, len(model.Columns))
	for _, c := range model.Columns {
		cols = append(cols, c.Name)
	}

	return &TableSink{
		log:   log,
		conn:  conn,
		model: model,
		query: fmt.Sprintf("INSERT INTO %s (%s)", model.Name, strings.Join(cols, ", ")),
	}
}

// Table returns the destination table name.
func (s *TableSink) Table() string {
	return s.model.Name
}

// WriteRows appends every row to a prepared batch and sends it. A row
// missing a modeled column gets nil for it, which ClickHouse stores as
// the column default; row keys outside the model are dropped. Inserts
// run synchronously: the consumer commits offsets after a flush, so a
// committed batch has to be durable, not parked in an async buffer.
func (s *TableSink) WriteRows(ctx context.Context, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ContextWithSyncInsert(ctx), s.query)
	if err != nil {
		return fmt.Errorf("failed to prepare batch for %s: %w", s.model.Name, err)
	}

	for _, row := range rows {
		values := make([]any, 0, len(s.model.Columns))
		for _, c := range s.model.Columns {
			values = append(values, row[c.Name])
		}

		if err := batch.Append(values...); err != nil {
			return fmt.Errorf("failed to append row to %s batch: %w", s.model.Name, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch to %s: %w", s.model.Name, err)
	}

	s.log.Debug("flushed batch", "table", s.model.Name, "rows", len(rows))
	return nil
}
