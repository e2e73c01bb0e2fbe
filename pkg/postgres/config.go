// Package postgres holds the OLTP side of the showcase: sampling live
// rows for type inference, and the goose migrations that bootstrap the
// demo orders schema.
package postgres

import "fmt"

// Config holds the PostgreSQL connection parameters.
type Config struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	SSLMode  string
}

func (c *Config) Validate() error {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == "" {
		c.Port = "5432"
	}
	if c.Database == "" {
		return fmt.Errorf("postgres database is required")
	}
	if c.Username == "" {
		return fmt.Errorf("postgres username is required")
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	return nil
}

// DSN renders the connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}
