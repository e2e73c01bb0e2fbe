package cdc

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type captureSink struct {
	table string
	rows  []map[string]any
}

func (s *captureSink) Table() string { return s.table }

func (s *captureSink) WriteRows(_ context.Context, rows []map[string]any) error {
	s.rows = append(s.rows, rows...)
	return nil
}

func TestStarSchema_CDC_Router(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.DiscardHandler)
	r := NewRouter(log)

	customers := &captureSink{table: "dim_customer"}
	r.Register("customers", customers)

	sink, ok := r.Lookup("customers")
	require.True(t, ok)
	require.Equal(t, "dim_customer", sink.Table())

	_, ok = r.Lookup("unknown_table")
	require.False(t, ok)

	replacement := &captureSink{table: "dim_customer_v2"}
	r.Register("customers", replacement)
	sink, ok = r.Lookup("customers")
	require.True(t, ok)
	require.Equal(t, "dim_customer_v2", sink.Table())
}
