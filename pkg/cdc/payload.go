// Package cdc consumes change-data-capture events emitted by the
// PostgreSQL → Redpanda Connect pipeline and lands them in the
// generated star-schema tables.
package cdc

import (
	"encoding/json"
	"fmt"
)

// Operations carried by the replication stream.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
	OpRead   = "read" // initial snapshot rows
)

// Metadata is the replication envelope header.
type Metadata struct {
	Table     string `json:"table"`
	Operation string `json:"operation"`
	// LSN is the PostgreSQL log sequence number as "high/low" hex,
	// e.g. "0/1A2B3C4".
	LSN string `json:"lsn"`
}

// Event is one raw CDC message. For delete events the payload carries
// only the primary key; the remaining fields arrive as null.
type Event struct {
	Metadata Metadata       `json:"metadata"`
	Payload  map[string]any `json:"payload"`
}

// ParseEvent decodes a raw message body.
func ParseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode CDC event: %w", err)
	}
	if ev.Metadata.Table == "" {
		return nil, fmt.Errorf("CDC event missing metadata.table")
	}
	if ev.Metadata.Operation == "" {
		return nil, fmt.Errorf("CDC event missing metadata.operation")
	}
	return &ev, nil
}
