package cdc

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a transformed event ready for the OLAP sink: the source
// payload plus the ReplacingMergeTree bookkeeping fields.
type Record struct {
	Table string
	Row   map[string]any
}

// Transform converts a raw event into a sink-ready record: decodes the
// LSN into a sortable integer version, sets is_deleted, and copies the
// payload without mutating the event.
func Transform(ev *Event) (Record, error) {
	lsn, err := ParseLSN(ev.Metadata.LSN)
	if err != nil {
		return Record{}, fmt.Errorf("event for %s: %w", ev.Metadata.Table, err)
	}

	row := make(map[string]any, len(ev.Payload)+2)
	for k, v := range ev.Payload {
		row[k] = v
	}

	var deleted uint8
	if ev.Metadata.Operation == OpDelete {
		deleted = 1
	}
	row["is_deleted"] = deleted
	row["lsn"] = lsn

	return Record{Table: ev.Metadata.Table, Row: row}, nil
}

// ParseLSN decodes a PostgreSQL "high/low" hex LSN into a 64-bit
// integer: (high << 32) | low. A plain hex string without the slash is
// accepted as the low half.
func ParseLSN(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty LSN")
	}

	high, low, found := strings.Cut(s, "/")
	if !found {
		v, err := strconv.ParseUint(s, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid LSN %q: %w", s, err)
		}
		return v, nil
	}

	h, err := strconv.ParseUint(high, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid LSN %q: %w", s, err)
	}
	l, err := strconv.ParseUint(low, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid LSN %q: %w", s, err)
	}
	return h<<32 | l, nil
}
