package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/taskorbit/taskorbit/internal/domain"
	"github.com/taskorbit/taskorbit/internal/store"

	_ "modernc.org/sqlite"
)

// newBareDB opens an in-memory database with a hand-built schema, bypassing
// the driver packages so the dialect-agnostic pieces are tested in
// isolation.
func newBareDB(t *testing.T) *DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE "user" (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			last_login_ts   TIMESTAMP,
			created_at      TIMESTAMP NOT NULL,
			updated_at      TIMESTAMP NOT NULL
		)`)
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE "task" (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES "user"(id) ON DELETE CASCADE,
			name           TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			ts_acomplished TIMESTAMP,
			ts_deadline    TIMESTAMP,
			created_at     TIMESTAMP NOT NULL,
			updated_at     TIMESTAMP NOT NULL
		)`)
	require.NoError(t, err)

	return New(db, Options{
		Qualify: func(table string) string { return `"` + table + `"` },
	})
}

func seedUser(ctx context.Context, t *testing.T, s *DB, id, name string) {
	t.Helper()
	require.NoError(t, s.Users().Create(ctx, domain.User{
		ID:             id,
		Name:           name,
		HashedPassword: "$argon2id$...",
	}))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newBareDB(t)

	seedUser(ctx, t, s, "u1", "alice")

	deadline := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	task := domain.Task{
		ID:          "t1",
		UserID:      "u1",
		Name:        "water the plants",
		Description: "balcony first",
		TsDeadline:  &deadline,
	}
	require.NoError(t, s.Tasks().Create(ctx, task))

	got, err := s.Tasks().GetByID(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, task.ID, got.ID)
	require.Equal(t, task.UserID, got.UserID)
	require.Equal(t, task.Name, got.Name)
	require.Equal(t, task.Description, got.Description)
	require.Nil(t, got.TsAccomplished)
	require.NotNil(t, got.TsDeadline)
	require.WithinDuration(t, deadline, *got.TsDeadline, time.Second)
	require.False(t, got.CreatedAt.IsZero())
}

func TestFetchOneNotFound(t *testing.T) {
	t.Parallel()
	s := newBareDB(t)

	_, err := s.Users().GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetByName(context.Background(), "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEmptyMatchGuard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newBareDB(t)
	r := runner{ext: s.db, opt: &s.opt}

	err := updateWhere(ctx, r, store.TaskEntity, map[string]any{}, map[string]any{"name": "oops"})
	require.ErrorIs(t, err, store.ErrEmptyMatch)

	err = deleteWhere(ctx, r, store.TaskEntity, nil)
	require.ErrorIs(t, err, store.ErrEmptyMatch)
}

func TestUnknownColumnsRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newBareDB(t)
	r := runner{ext: s.db, opt: &s.opt}

	_, err := fetchWhere[taskRow](ctx, r, store.TaskEntity, store.Filters{"owner": "u1"}, "")
	require.ErrorIs(t, err, store.ErrBadField)

	err = updateWhere(ctx, r, store.TaskEntity,
		map[string]any{"id": "t1"}, map[string]any{"colour": "red"})
	require.ErrorIs(t, err, store.ErrBadField)

	err = insertRow(ctx, r, store.TaskEntity, map[string]any{"id": "t1", "owner": "u1"})
	require.ErrorIs(t, err, store.ErrBadField)
}

func TestMembershipFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newBareDB(t)
	r := runner{ext: s.db, opt: &s.opt}

	seedUser(ctx, t, s, "u1", "alice")
	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, s.Tasks().Create(ctx, domain.Task{ID: id, UserID: "u1", Name: id}))
	}

	rows, err := fetchWhere[taskRow](ctx, r, store.TaskEntity,
		store.Filters{"id": []string{"t1", "t3"}}, "id ASC")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "t1", rows[0].ID)
	require.Equal(t, "t3", rows[1].ID)

	// an empty membership set matches nothing rather than everything
	rows, err = fetchWhere[taskRow](ctx, r, store.TaskEntity,
		store.Filters{"id": []string{}}, "")
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestUpdateBumpsUpdatedAt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newBareDB(t)

	seedUser(ctx, t, s, "u1", "alice")
	require.NoError(t, s.Tasks().Create(ctx, domain.Task{ID: "t1", UserID: "u1", Name: "before"}))

	created, err := s.Tasks().GetByID(ctx, "t1")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Tasks().Update(ctx, "t1", map[string]any{"name": "after"}))

	updated, err := s.Tasks().GetByID(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "after", updated.Name)
	require.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUserDeleteCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newBareDB(t)
	r := runner{ext: s.db, opt: &s.opt}

	seedUser(ctx, t, s, "u1", "alice")
	require.NoError(t, s.Tasks().Create(ctx, domain.Task{ID: "t1", UserID: "u1", Name: "orphan-to-be"}))

	require.NoError(t, deleteWhere(ctx, r, store.UserEntity, map[string]any{"id": "u1"}))

	_, err := s.Tasks().GetByID(ctx, "t1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newBareDB(t)

	// rolled back on error
	failed := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().Create(ctx, domain.User{ID: "u1", Name: "alice", HashedPassword: "x"}); err != nil {
			return err
		}
		return context.Canceled
	})
	require.ErrorIs(t, failed, context.Canceled)

	_, err := s.Users().GetByName(ctx, "alice")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().Create(ctx, domain.User{ID: "u2", Name: "bob", HashedPassword: "x"})
	}))

	_, err = s.Users().GetByName(ctx, "bob")
	require.NoError(t, err)
}
