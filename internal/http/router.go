// Package http is the web adapter: routing, session handling, and the
// JSON-over-HTMX surface of the task board.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/taskorbit/taskorbit/internal/store"
	"github.com/taskorbit/taskorbit/internal/uow"
	"github.com/taskorbit/taskorbit/pkg/cookiex"
	"github.com/taskorbit/taskorbit/pkg/httpx"
	"github.com/taskorbit/taskorbit/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	store        store.Store
	cookies      *cookiex.Codec
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
}

func NewRouter(st store.Store, cookies *cookiex.Codec, buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		store:        st,
		cookies:      cookies,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTasks()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	login := &LoginHandler{Cookies: r.cookies}
	register := &RegisterHandler{}

	// GET just renders the form shell; no store access needed.
	r.Mux.Handle("GET /login",
		httpx.Chain(http.HandlerFunc(login.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /login - strict rate limit by IP + username to slow brute force
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(login.HandlePost),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
			uow.Middleware(r.store),
		),
	)

	r.Mux.Handle("GET /register",
		httpx.Chain(http.HandlerFunc(register.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /register",
		httpx.Chain(http.HandlerFunc(register.HandlePost),
			httpx.RateLimitByIP(httpx.StrictLimit),
			uow.Middleware(r.store),
		),
	)

	r.Mux.Handle("GET /logout", http.HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			r.cookies.Clear(w)
			redirectTo(w, req, "/login")
		},
	))
}

func (r *Router) registerTasks() {
	h := &TasksHandler{}

	// Every task route runs inside a request transaction with the session
	// guard resolving the user against it.
	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			uow.Middleware(r.store),
			r.guard,
		)
	}

	r.Mux.Handle("GET /{$}", secured(h.HandleIndex))
	r.Mux.Handle("GET /task_list", secured(h.HandleList))
	r.Mux.Handle("GET /search_tasks", secured(h.HandleSearch))
	r.Mux.Handle("POST /add_task", secured(h.HandleAdd))
	r.Mux.Handle("POST /edit_task/{id}", secured(h.HandleEdit))
	r.Mux.Handle("POST /toggle_task/{id}", secured(h.HandleToggle))
	r.Mux.Handle("DELETE /delete-task/{id}", secured(h.HandleDelete))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
