package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/taskorbit/taskorbit/internal/domain"
	"github.com/taskorbit/taskorbit/internal/store"
	"github.com/taskorbit/taskorbit/internal/uow"
	"github.com/taskorbit/taskorbit/pkg/httpx"
	"github.com/taskorbit/taskorbit/pkg/slogx"
)

type userKey struct{}

// CurrentUser returns the session user resolved by the guard.
func CurrentUser(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(domain.User)
	return u, ok
}

// guard resolves the session cookie against the request transaction. A
// missing, invalid, or stale claim clears the cookie and sends the client
// to /login; the protected handler only ever runs with a live user in
// context.
func (rt *Router) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := slogx.FromContext(ctx)

		subject, err := rt.cookies.Read(r)
		if err != nil {
			rt.cookies.Clear(w)
			redirectTo(w, r, "/login")
			return
		}

		tx, ok := uow.FromContext(ctx)
		if !ok {
			log.Error("session guard outside a unit of work")
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		user, err := tx.Users().GetByID(ctx, subject)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// Claim refers to an account that no longer exists.
				rt.cookies.Clear(w)
				redirectTo(w, r, "/login")
				return
			}
			log.Error("resolve session user", "err", err)
			httpx.WriteError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}

		ctx = context.WithValue(ctx, userKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// redirectTo sends a browser redirect, or the HTMX equivalent when the
// request came from an HX-powered fragment swap.
func redirectTo(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
