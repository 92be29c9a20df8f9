// Package sqlite is the embedded-file backend. Deployment isolation on a
// shared file uses a table-name prefix, rendered into the migration SQL.
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/taskorbit/taskorbit/internal/store"
	"github.com/taskorbit/taskorbit/internal/store/sqlstore"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// NewStore opens (and creates, if missing) the database file at path.
// prefix, when non-empty, is prepended to every table name so multiple
// logical deployments can share one file. Pass ":memory:" for an
// in-process database, used heavily by tests.
func NewStore(path, prefix string) (*sqlstore.DB, error) {
	dsn := "file:" + path +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	memory := path == ":memory:"
	if memory {
		dsn = ":memory:"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	if memory {
		// An in-memory database exists per connection; a second pooled
		// connection would see an empty schema.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return sqlstore.New(db, sqlstore.Options{
		Qualify: func(table string) string {
			return `"` + prefix + table + `"`
		},
		MapError: mapError,
		Migrate: func(db *sqlx.DB) error {
			return applyMigrations(db, prefix)
		},
	}), nil
}

// mapError translates sqlite result codes into store error kinds.
func mapError(err error) error {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return err
	}

	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_BUSY, sqlite3.SQLITE_IOERR:
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}
