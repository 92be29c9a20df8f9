// Package postgres is the networked backend. Deployment isolation uses a
// schema namespace selected through the connection search path, so table
// names stay unprefixed.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/taskorbit/taskorbit/internal/store"
	"github.com/taskorbit/taskorbit/internal/store/sqlstore"
)

// Config describes one Postgres deployment.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Schema   string // optional namespace; empty means the default search path
}

// DSN renders the lib/pq key=value connection string.
func (c Config) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	if c.Schema != "" {
		dsn += " search_path=" + c.Schema
	}
	return dsn
}

// NewStore connects to the configured server and, when a schema is set,
// creates it if missing so migrations have somewhere to land.
func NewStore(cfg Config) (*sqlstore.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if cfg.Schema != "" {
		q := "CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(cfg.Schema)
		if _, err := db.ExecContext(context.Background(), q); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres: create schema %s: %w", cfg.Schema, mapError(err))
		}
	}

	return sqlstore.New(db, sqlstore.Options{
		Qualify: func(table string) string {
			// "user" is reserved in Postgres; quote everything.
			return pq.QuoteIdentifier(table)
		},
		MapError: mapError,
		Migrate:  applyMigrations,
	}), nil
}

// mapError translates Postgres error classes into store error kinds.
// Class 23 covers every integrity constraint; 08 and 57 cover connection
// failures and server shutdowns.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code.Class() {
	case "23":
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	case "08", "57":
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}
