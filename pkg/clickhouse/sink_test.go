package clickhouse

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/stretchr/testify/require"

	"github.com/calyxdata/starschema/pkg/cdc"
	"github.com/calyxdata/starschema/pkg/star"
)

var errPrepare = errors.New("prepare failed")

// captureConn records what the sink hands the driver and stops there,
// so batch preparation is observable without a live server.
type captureConn struct {
	query string
	err   error
}

func (c *captureConn) Exec(context.Context, string, ...any) error { return nil }
func (c *captureConn) Query(context.Context, string, ...any) (driver.Rows, error) {
	return nil, nil
}
func (c *captureConn) PrepareBatch(_ context.Context, query string) (driver.Batch, error) {
	c.query = query
	return nil, c.err
}
func (c *captureConn) Close() error { return nil }

func replicatedModel(t *testing.T) *star.TableModel {
	t.Helper()
	model, err := star.BuildDimension("dim_customer", map[string]any{
		"id":   1,
		"name": "Alice",
	}, star.DimensionOptions{KeyField: "id", Attributes: []string{"name"}, Replicated: true})
	require.NoError(t, err)
	return model
}

func TestStarSchema_ClickHouse_SinkDeleteEventFieldsReachInsert(t *testing.T) {
	t.Parallel()

	model := replicatedModel(t)

	ev, err := cdc.ParseEvent([]byte(`{
		"metadata": {"table": "customers", "operation": "delete", "lsn": "0/1A2B3C4"},
		"payload": {"id": 42, "name": null}
	}`))
	require.NoError(t, err)

	rec, err := cdc.Transform(ev)
	require.NoError(t, err)

	// Every transformed field maps onto a modeled column, so nothing
	// the sink writes can drop the tombstone or its version.
	for name := range rec.Row {
		require.True(t, model.HasColumn(name), "transformed field %s not in model", name)
	}
	require.Equal(t, uint8(1), rec.Row["is_deleted"])
	require.Equal(t, uint64(0x1A2B3C4), rec.Row["lsn"])

	conn := &captureConn{err: errPrepare}
	sink := NewTableSink(slog.New(slog.DiscardHandler), conn, model)

	err = sink.WriteRows(context.Background(), []map[string]any{rec.Row})
	require.ErrorIs(t, err, errPrepare)
	require.Equal(t, "INSERT INTO dim_customer (id, name, is_deleted, lsn)", conn.query)
}

func TestStarSchema_ClickHouse_SinkEmptyBatchIsNoop(t *testing.T) {
	t.Parallel()

	conn := &captureConn{err: errPrepare}
	sink := NewTableSink(slog.New(slog.DiscardHandler), conn, replicatedModel(t))

	require.NoError(t, sink.WriteRows(context.Background(), nil))
	require.Empty(t, conn.query)
}
