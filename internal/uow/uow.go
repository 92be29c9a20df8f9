// Package uow scopes one store transaction to each HTTP request. The
// middleware opens the transaction before the handler runs and finishes it
// exactly once afterwards: commit on success, rollback when the handler
// flagged a failure or panicked.
package uow

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/taskorbit/taskorbit/internal/store"
	"github.com/taskorbit/taskorbit/pkg/slogx"
)

type ctxKey struct{}

type unit struct {
	tx store.Tx

	mu     sync.Mutex
	failed bool
	done   bool
}

// FromContext returns the transaction opened for the current request.
// Handlers and services run all of their store calls through it.
func FromContext(ctx context.Context) (store.Tx, bool) {
	u, ok := ctx.Value(ctxKey{}).(*unit)
	if !ok {
		return nil, false
	}
	return u.tx, true
}

// Fail marks the current request's transaction rollback-only. The response
// the handler writes afterwards is unaffected; only persistence is undone.
func Fail(ctx context.Context) {
	u, ok := ctx.Value(ctxKey{}).(*unit)
	if !ok {
		return
	}
	u.mu.Lock()
	u.failed = true
	u.mu.Unlock()
}

// Middleware opens a transaction per request and attaches it to the request
// context. After the handler returns the transaction is committed, unless
// Fail was called or the handler panicked, in which case it is rolled back.
// A panic is swallowed into a 500 once the rollback is through.
func Middleware(st store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			tx, err := st.Tx(ctx)
			if err != nil {
				log.Error("open transaction", "error", err)
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			u := &unit{tx: tx}
			ctx = context.WithValue(ctx, ctxKey{}, u)

			defer func() {
				rec := recover()
				if rec != nil {
					u.mu.Lock()
					u.failed = true
					u.mu.Unlock()
					log.Error("request panic", "panic", rec)
				}
				finish(u, log)
				if rec != nil {
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func finish(u *unit, log *slog.Logger) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return
	}
	u.done = true

	if u.failed {
		if err := u.tx.Rollback(); err != nil {
			log.Error("rollback transaction", "error", err)
		}
		return
	}

	if err := u.tx.Commit(); err != nil {
		// A commit-time conflict loses the write but the response has
		// already gone out; all that is left is to log and roll back.
		if errors.Is(err, store.ErrConflict) {
			log.Warn("commit conflict, rolling back", "error", err)
		} else {
			log.Error("commit transaction", "error", err)
		}
		_ = u.tx.Rollback()
	}
}
