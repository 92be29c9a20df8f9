package sqlstore

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/taskorbit/taskorbit/internal/store"
)

// txStore scopes the same repositories to one open transaction.
type txStore struct {
	tx     *sqlx.Tx
	parent *DB
}

func (t *txStore) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return t.parent.mapError(err)
	}
	return nil
}

func (t *txStore) Rollback() error {
	err := t.tx.Rollback()
	if err == nil || err == sql.ErrTxDone {
		return nil
	}
	return t.parent.mapError(err)
}

func (t *txStore) Close() error { return nil } // the outer pool stays open

// Ping is a no-op inside a transaction; the connection is already held.
func (t *txStore) Ping(ctx context.Context) error { return nil }

// ApplyMigrations is a no-op; migrations run before any transaction starts.
func (t *txStore) ApplyMigrations() error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users {
	return &usersRepo{r: runner{ext: t.tx, opt: &t.parent.opt}}
}

func (t *txStore) Tasks() store.Tasks {
	return &tasksRepo{r: runner{ext: t.tx, opt: &t.parent.opt}}
}
