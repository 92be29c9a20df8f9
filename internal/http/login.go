package http

import (
	"errors"
	"net/http"

	"github.com/taskorbit/taskorbit/internal/service"
	"github.com/taskorbit/taskorbit/internal/uow"
	"github.com/taskorbit/taskorbit/pkg/cookiex"
	"github.com/taskorbit/taskorbit/pkg/httpx"
	"github.com/taskorbit/taskorbit/pkg/slogx"
)

type LoginHandler struct {
	Cookies *cookiex.Codec
}

func (h *LoginHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"page": "login"})
}

func (h *LoginHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		uow.Fail(ctx)
		httpx.WriteError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		uow.Fail(ctx)
		httpx.WriteError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	tx, ok := uow.FromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := service.Login(ctx, tx, username, password)
	if err != nil {
		uow.Fail(ctx)
		if errors.Is(err, service.ErrBadCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, service.ErrBadCredentials.Error())
			return
		}
		log.Error("login", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if err := h.Cookies.Issue(w, user.ID); err != nil {
		uow.Fail(ctx)
		log.Error("issue session cookie", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	redirectTo(w, r, "/")
}
