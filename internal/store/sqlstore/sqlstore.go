// Package sqlstore implements the persistence gateway over database/sql via
// sqlx. It is dialect-agnostic: the sqlite and postgres driver packages
// supply an Options value describing table qualification, native error
// translation and migrations, and share everything else.
package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jmoiron/sqlx"
	"github.com/taskorbit/taskorbit/internal/store"
)

// Options is the per-backend configuration supplied by a driver package.
type Options struct {
	// Qualify maps a base table name to its deployment-qualified, quoted
	// SQL form (table prefix for the embedded backend, plain quoting for
	// the networked one where the schema search path isolates).
	Qualify func(table string) string

	// MapError translates backend-native errors into store error kinds.
	// It only needs to handle driver-specific cases; sql.ErrNoRows and
	// connection failures are mapped centrally.
	MapError func(error) error

	// Migrate applies the backend's embedded schema migrations.
	Migrate func(db *sqlx.DB) error
}

// DB is a Store backed by a sqlx connection pool.
type DB struct {
	db  *sqlx.DB
	opt Options
}

// New wraps an opened sqlx pool. Drivers call this from their NewStore.
func New(db *sqlx.DB, opt Options) *DB {
	return &DB{db: db, opt: opt}
}

func (s *DB) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *DB) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.mapError(err)
	}
	return nil
}

// ApplyMigrations brings the schema up to date using the driver's embedded
// migration files.
func (s *DB) ApplyMigrations() error {
	return s.opt.Migrate(s.db)
}

// Tx starts a unit-of-work on one pooled connection. The connection is
// held exclusively until Commit or Rollback returns it to the pool.
func (s *DB) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &txStore{tx: tx, parent: s}, nil
}

// WithTx runs fn within a transaction, rolling back on error or panic and
// committing otherwise.
func (s *DB) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // no-op after a successful commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *DB) Users() store.Users {
	return &usersRepo{r: runner{ext: s.db, opt: &s.opt}}
}

func (s *DB) Tasks() store.Tasks {
	return &tasksRepo{r: runner{ext: s.db, opt: &s.opt}}
}

// runner bundles an executor (pool or transaction) with backend options.
type runner struct {
	ext sqlx.ExtContext
	opt *Options
}

func (r runner) table(d store.Descriptor) string { return r.opt.Qualify(d.Table) }

func (s *DB) mapError(err error) error { return s.opt.mapError(err) }

// mapError applies the shared error translation, then the backend's.
func (o *Options) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if isConnError(err) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if o.MapError != nil {
		return o.MapError(err)
	}
	return err
}

func isConnError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
