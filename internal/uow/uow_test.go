package uow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskorbit/taskorbit/internal/domain"
	"github.com/taskorbit/taskorbit/internal/store"
	"github.com/taskorbit/taskorbit/internal/store/drivers/sqlite"
	"github.com/taskorbit/taskorbit/pkg/idx"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func insertUser(ctx context.Context, t *testing.T, name string) {
	t.Helper()

	tx, ok := FromContext(ctx)
	require.True(t, ok)
	require.NoError(t, tx.Users().Create(ctx, domain.User{
		ID:             idx.New().String(),
		Name:           name,
		HashedPassword: "$argon2id$...",
	}))
}

func TestMiddlewareCommitsOnSuccess(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	handler := Middleware(st)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		insertUser(r.Context(), t, "alice")
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	// visible outside the request transaction after commit
	u, err := st.Users().GetByName(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Name)
}

func TestMiddlewareRollsBackOnFail(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	handler := Middleware(st)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		insertUser(r.Context(), t, "bob")
		Fail(r.Context())
		w.WriteHeader(http.StatusConflict)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", nil))
	require.Equal(t, http.StatusConflict, rec.Code)

	_, err := st.Users().GetByName(context.Background(), "bob")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMiddlewareRollsBackOnPanic(t *testing.T) {
	t.Parallel()
	st := newTestStore(t)

	handler := Middleware(st)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		insertUser(r.Context(), t, "carol")
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	_, err := st.Users().GetByName(context.Background(), "carol")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	t.Parallel()

	_, ok := FromContext(context.Background())
	require.False(t, ok)

	// Fail without a unit in context is a no-op, not a panic.
	Fail(context.Background())
}
