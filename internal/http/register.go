package http

import (
	"errors"
	"net/http"

	"github.com/taskorbit/taskorbit/internal/domain"
	"github.com/taskorbit/taskorbit/internal/service"
	"github.com/taskorbit/taskorbit/internal/store"
	"github.com/taskorbit/taskorbit/internal/uow"
	"github.com/taskorbit/taskorbit/pkg/httpx"
	"github.com/taskorbit/taskorbit/pkg/slogx"
)

type RegisterHandler struct{}

func (h *RegisterHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"page": "register"})
}

func (h *RegisterHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		uow.Fail(ctx)
		httpx.WriteError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	tx, ok := uow.FromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	_, err := service.Register(ctx, tx, r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		uow.Fail(ctx)
		switch {
		case errors.Is(err, domain.ErrInvalid):
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrConflict):
			httpx.WriteError(w, http.StatusConflict, "that name is already taken")
		default:
			log.Error("register", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	// A fresh account still has to sign in; no session is issued here.
	redirectTo(w, r, "/login")
}
