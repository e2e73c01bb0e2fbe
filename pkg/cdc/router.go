package cdc

import (
	"context"
	"log/slog"

	"github.com/calyxdata/starschema/pkg/metrics"
)

// RowSink lands transformed rows in one destination table.
type RowSink interface {
	Table() string
	WriteRows(ctx context.Context, rows []map[string]any) error
}

// Router maps source OLTP table names to destination sinks. Events for
// tables with no registered sink are counted as dead letters rather
// than failing the stream; the upstream pipeline replays from the
// topic, so dropping here is visible but not fatal.
type Router struct {
	log   *slog.Logger
	sinks map[string]RowSink
}

func NewRouter(log *slog.Logger) *Router {
	return &Router{
		log:   log,
		sinks: make(map[string]RowSink),
	}
}

// Register routes events from sourceTable to sink. Registering the
// same source twice replaces the previous sink.
func (r *Router) Register(sourceTable string, sink RowSink) {
	r.sinks[sourceTable] = sink
	r.log.Info("registered CDC route", "source", sourceTable, "destination", sink.Table())
}

// Lookup returns the sink for a source table, or false when the table
// is unrouted.
func (r *Router) Lookup(sourceTable string) (RowSink, bool) {
	sink, ok := r.sinks[sourceTable]
	return sink, ok
}

// DeadLetter records an event that could not be routed or parsed.
func (r *Router) DeadLetter(reason string, table string) {
	metrics.CDCDeadLetterTotal.WithLabelValues(reason).Inc()
	r.log.Warn("CDC event dead-lettered", "reason", reason, "table", table)
}
