package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSampleData indicates that no row was available to infer a
	// table's shape from. Callers treat this as "seed the database
	// first" and abort; no partial DDL is ever emitted.
	ErrNoSampleData = errors.New("no sample data available")

	// ErrMissingField indicates a declared field was absent from the
	// sample record.
	ErrMissingField = errors.New("field missing from sample")
)

// NoSampleDataError reports that a table had no sample row to infer from.
type NoSampleDataError struct {
	Table string
}

func (e *NoSampleDataError) Error() string {
	return fmt.Sprintf("table %s: no sample data available", e.Table)
}

func (e *NoSampleDataError) Unwrap() error { return ErrNoSampleData }

// MissingFieldError reports a declared field that the sample record does
// not contain. It names both the field and the owning table so callers
// can fix the descriptor rather than chase a silent default.
type MissingFieldError struct {
	Table string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("table %s: field %q missing from sample record", e.Table, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }
