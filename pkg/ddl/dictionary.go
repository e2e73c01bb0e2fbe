package ddl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDictionaryConfig indicates a dictionary config that sets
// neither (or both of) a source table and a raw query.
var ErrInvalidDictionaryConfig = errors.New("invalid dictionary config")

// InvalidDictionaryConfigError carries the dictionary name and the
// reason the config was rejected.
type InvalidDictionaryConfigError struct {
	Name   string
	Reason string
}

func (e *InvalidDictionaryConfigError) Error() string {
	return fmt.Sprintf("dictionary %s: %s", e.Name, e.Reason)
}

func (e *InvalidDictionaryConfigError) Unwrap() error { return ErrInvalidDictionaryConfig }

// Layout selects the in-memory layout of a ClickHouse dictionary.
type Layout string

const (
	LayoutFlat             Layout = "FLAT"
	LayoutHashed           Layout = "HASHED"
	LayoutComplexKeyHashed Layout = "COMPLEX_KEY_HASHED"
)

// Connection holds the upstream database connection parameters for a
// dictionary source. Every field is independently optional: unset
// fields are omitted from the emitted SOURCE fragment entirely, never
// rendered as empty-string SQL tokens.
type Connection struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// merge overlays set fields of other onto c and returns the result,
// so a shared default connection can be combined with per-dictionary
// overrides without hidden global state.
func (c Connection) merge(other Connection) Connection {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.User != "" {
		c.User = other.User
	}
	if other.Password != "" {
		c.Password = other.Password
	}
	if other.Database != "" {
		c.Database = other.Database
	}
	return c
}

// Lifetime bounds the dictionary refresh interval in seconds.
type Lifetime struct {
	Min int
	Max int
}

// DictionaryField is a declared dictionary attribute. Type is the
// target-engine type string, trusted verbatim.
type DictionaryField struct {
	Name string
	Type string
}

// DictionarySource describes a table-shaped source that the builder
// resolves into a SELECT statement.
type DictionarySource struct {
	Table   string
	Columns []string
	Where   string
}

// DictionaryConfig is the declarative input for a dictionary. Exactly
// one of Source or Query must be set; the builder resolves it into a
// single source query at construction time.
type DictionaryConfig struct {
	Name        string
	Database    string
	Fields      []DictionaryField
	PrimaryKeys []string
	Source      *DictionarySource
	Query       string
	Connection  Connection
	Defaults    Connection
	Layout      Layout
	Lifetime    *Lifetime
}

// DictionaryModel is the resolved, render-ready dictionary shape.
type DictionaryModel struct {
	Name        string
	Database    string
	Fields      []DictionaryField
	PrimaryKeys []string
	SourceQuery string
	Connection  Connection
	Layout      Layout
	Lifetime    Lifetime
}

// defaultLifetime keeps dictionaries refreshing within a few minutes
// without hammering the upstream database.
var defaultLifetime = Lifetime{Min: 60, Max: 300}

// NewDictionaryModel validates a config and resolves it into a model.
func NewDictionaryModel(cfg DictionaryConfig) (*DictionaryModel, error) {
	if cfg.Name == "" {
		return nil, &InvalidDictionaryConfigError{Name: "(unnamed)", Reason: "name is required"}
	}
	if len(cfg.Fields) == 0 {
		return nil, &InvalidDictionaryConfigError{Name: cfg.Name, Reason: "at least one field is required"}
	}
	if len(cfg.PrimaryKeys) == 0 {
		return nil, &InvalidDictionaryConfigError{Name: cfg.Name, Reason: "at least one primary key is required"}
	}

	hasSource := cfg.Source != nil
	hasQuery := cfg.Query != ""
	if hasSource == hasQuery {
		return nil, &InvalidDictionaryConfigError{
			Name:   cfg.Name,
			Reason: "exactly one of source or query must be set",
		}
	}

	query := cfg.Query
	if hasSource {
		var err error
		query, err = resolveSourceQuery(cfg.Name, cfg.Source)
		if err != nil {
			return nil, err
		}
	}

	layout := cfg.Layout
	if layout == "" {
		layout = LayoutHashed
	}
	lifetime := defaultLifetime
	if cfg.Lifetime != nil {
		lifetime = *cfg.Lifetime
	}

	return &DictionaryModel{
		Name:        cfg.Name,
		Database:    cfg.Database,
		Fields:      cfg.Fields,
		PrimaryKeys: cfg.PrimaryKeys,
		SourceQuery: query,
		Connection:  cfg.Defaults.merge(cfg.Connection),
		Layout:      layout,
		Lifetime:    lifetime,
	}, nil
}

func resolveSourceQuery(name string, src *DictionarySource) (string, error) {
	if src.Table == "" {
		return "", &InvalidDictionaryConfigError{Name: name, Reason: "source table is required"}
	}
	cols := "*"
	if len(src.Columns) > 0 {
		cols = strings.Join(src.Columns, ", ")
	}
	query := fmt.Sprintf("SELECT %s FROM %s", cols, src.Table)
	if src.Where != "" {
		query += " WHERE " + src.Where
	}
	return query, nil
}

// QualifiedName returns the database-qualified dictionary name.
func (m *DictionaryModel) QualifiedName() string {
	if m.Database == "" {
		return m.Name
	}
	return m.Database + "." + m.Name
}

// RenderDictionary renders the CREATE DICTIONARY statement and its
// paired DROP statement. The SOURCE connection fragment includes only
// the connection fields that are set.
func (e *Emitter) RenderDictionary(m *DictionaryModel) (createSQL, dropSQL string, err error) {
	if m.SourceQuery == "" {
		return "", "", &InvalidDictionaryConfigError{Name: m.Name, Reason: "model has no source query"}
	}

	fieldLines := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		fieldLines = append(fieldLines, fmt.Sprintf("    %s %s", f.Name, f.Type))
	}

	var src strings.Builder
	if m.Connection.Host != "" {
		fmt.Fprintf(&src, "    HOST '%s'\n", m.Connection.Host)
	}
	if m.Connection.Port != 0 {
		fmt.Fprintf(&src, "    PORT %d\n", m.Connection.Port)
	}
	if m.Connection.User != "" {
		fmt.Fprintf(&src, "    USER '%s'\n", m.Connection.User)
	}
	if m.Connection.Password != "" {
		fmt.Fprintf(&src, "    PASSWORD '%s'\n", escapeLiteral(m.Connection.Password))
	}
	if m.Connection.Database != "" {
		fmt.Fprintf(&src, "    DB '%s'\n", m.Connection.Database)
	}
	fmt.Fprintf(&src, "    QUERY '%s'\n", escapeLiteral(m.SourceQuery))

	createSQL = fmt.Sprintf(
		"CREATE DICTIONARY IF NOT EXISTS %s (\n%s\n)\nPRIMARY KEY %s\nSOURCE(POSTGRESQL(\n%s))\nLAYOUT(%s())\nLIFETIME(MIN %d MAX %d);",
		m.QualifiedName(),
		strings.Join(fieldLines, ",\n"),
		strings.Join(m.PrimaryKeys, ", "),
		src.String(),
		m.Layout,
		m.Lifetime.Min,
		m.Lifetime.Max,
	)
	dropSQL = fmt.Sprintf("DROP DICTIONARY IF EXISTS %s;", m.QualifiedName())
	return createSQL, dropSQL, nil
}

// escapeLiteral escapes single quotes inside an emitted string literal.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
