// Package config loads the declarative star-schema descriptor file:
// which OLTP tables to sample, how their fields map onto dimensions,
// facts, and dictionaries, and the shared dictionary source connection.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/calyxdata/starschema/pkg/ddl"
	"github.com/calyxdata/starschema/pkg/star"
)

// Dimension describes one dimension table sourced from an OLTP table.
type Dimension struct {
	Name        string   `yaml:"name"`
	SourceTable string   `yaml:"source_table"`
	KeyField    string   `yaml:"key_field"`
	Attributes  []string `yaml:"attributes"`
	PrimaryKey  []string `yaml:"primary_key,omitempty"`
	// Replicated marks tables the CDC consumer lands events in; they
	// get the is_deleted/lsn bookkeeping columns.
	Replicated bool `yaml:"replicated,omitempty"`
}

// Measure pairs a fact column with its aggregation.
type Measure struct {
	Column      string `yaml:"column"`
	Aggregation string `yaml:"aggregation"`
}

// Fact describes one fact table sourced from an OLTP table.
type Fact struct {
	Name           string    `yaml:"name"`
	SourceTable    string    `yaml:"source_table"`
	Measures       []Measure `yaml:"measures"`
	DimensionKeys  []string  `yaml:"dimension_keys"`
	TimestampField string    `yaml:"timestamp_field,omitempty"`
	PrimaryKey     []string  `yaml:"primary_key,omitempty"`
	Replicated     bool      `yaml:"replicated,omitempty"`
}

// DictionaryField declares one dictionary attribute.
type DictionaryField struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// DictionarySource is the table-shaped dictionary source.
type DictionarySource struct {
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns,omitempty"`
	Where   string   `yaml:"where,omitempty"`
}

// Connection holds optional upstream connection parameters.
type Connection struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
}

// Dictionary describes one ClickHouse dictionary over an OLTP table.
type Dictionary struct {
	Name        string            `yaml:"name"`
	Database    string            `yaml:"database,omitempty"`
	Fields      []DictionaryField `yaml:"fields"`
	PrimaryKeys []string          `yaml:"primary_keys"`
	Source      *DictionarySource `yaml:"source,omitempty"`
	Query       string            `yaml:"query,omitempty"`
	Connection  Connection        `yaml:"connection,omitempty"`
	Layout      string            `yaml:"layout,omitempty"`
	LifetimeMin int               `yaml:"lifetime_min,omitempty"`
	LifetimeMax int               `yaml:"lifetime_max,omitempty"`
}

// File is the full descriptor document.
type File struct {
	Dimensions   []Dimension  `yaml:"dimensions"`
	Facts        []Fact       `yaml:"facts"`
	Dictionaries []Dictionary `yaml:"dictionaries,omitempty"`
	// Connection is the shared default for dictionary sources; each
	// dictionary's own connection overrides it field by field.
	Connection Connection `yaml:"connection,omitempty"`
}

// Load reads and parses a descriptor file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}
	return Parse(data)
}

// Parse parses descriptor YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the descriptor for the defects that would otherwise
// surface later as confusing build errors.
func (f *File) Validate() error {
	seen := make(map[string]struct{})
	for _, d := range f.Dimensions {
		if d.Name == "" {
			return fmt.Errorf("dimension with empty name")
		}
		if d.SourceTable == "" {
			return fmt.Errorf("dimension %s: source_table is required", d.Name)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("duplicate table name %s", d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	for _, fa := range f.Facts {
		if fa.Name == "" {
			return fmt.Errorf("fact with empty name")
		}
		if fa.SourceTable == "" {
			return fmt.Errorf("fact %s: source_table is required", fa.Name)
		}
		if _, dup := seen[fa.Name]; dup {
			return fmt.Errorf("duplicate table name %s", fa.Name)
		}
		seen[fa.Name] = struct{}{}
	}
	return nil
}

// Options converts a dimension entry into builder options.
func (d Dimension) Options() star.DimensionOptions {
	return star.DimensionOptions{
		KeyField:   d.KeyField,
		Attributes: d.Attributes,
		PrimaryKey: d.PrimaryKey,
		Replicated: d.Replicated,
	}
}

// Options converts a fact entry into builder options.
func (f Fact) Options() star.FactOptions {
	measures := make([]star.Measure, 0, len(f.Measures))
	for _, m := range f.Measures {
		measures = append(measures, star.Measure{
			Column:      m.Column,
			Aggregation: star.Aggregation(m.Aggregation),
		})
	}
	return star.FactOptions{
		Measures:       measures,
		DimensionKeys:  f.DimensionKeys,
		TimestampField: f.TimestampField,
		PrimaryKey:     f.PrimaryKey,
		Replicated:     f.Replicated,
	}
}

// DictionaryConfig converts a dictionary entry into the emitter's
// config shape, carrying the file-level connection as defaults.
func (f *File) DictionaryConfig(d Dictionary) ddl.DictionaryConfig {
	fields := make([]ddl.DictionaryField, 0, len(d.Fields))
	for _, fd := range d.Fields {
		fields = append(fields, ddl.DictionaryField{Name: fd.Name, Type: fd.Type})
	}

	var src *ddl.DictionarySource
	if d.Source != nil {
		src = &ddl.DictionarySource{
			Table:   d.Source.Table,
			Columns: d.Source.Columns,
			Where:   d.Source.Where,
		}
	}

	var lifetime *ddl.Lifetime
	if d.LifetimeMin != 0 || d.LifetimeMax != 0 {
		lifetime = &ddl.Lifetime{Min: d.LifetimeMin, Max: d.LifetimeMax}
	}

	return ddl.DictionaryConfig{
		Name:        d.Name,
		Database:    d.Database,
		Fields:      fields,
		PrimaryKeys: d.PrimaryKeys,
		Source:      src,
		Query:       d.Query,
		Connection:  toDDLConnection(d.Connection),
		Defaults:    toDDLConnection(f.Connection),
		Layout:      ddl.Layout(d.Layout),
		Lifetime:    lifetime,
	}
}

func toDDLConnection(c Connection) ddl.Connection {
	return ddl.Connection{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
	}
}
