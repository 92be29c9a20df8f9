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

// TasksHandler serves the board and its HTMX fragment endpoints. The guard
// has already resolved the user and the unit of work by the time any of
// these run.
type TasksHandler struct{}

func taskValues(tasks []domain.Task) []map[string]any {
	out := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Values())
	}
	return out
}

// HandleIndex serves the board: active tasks by default, the done column
// when ?status=done.
func (h *TasksHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, _ := CurrentUser(ctx)
	tx, _ := uow.FromContext(ctx)

	status := r.URL.Query().Get("status")
	completed := status == "done"
	if !completed {
		status = "active"
	}

	tasks, err := service.ListTasks(ctx, tx, user.ID, completed)
	if err != nil {
		uow.Fail(ctx)
		log.Error("list tasks", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not load tasks")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user":   user.Values(),
		"status": status,
		"tasks":  taskValues(tasks),
	})
}

// HandleList serves the bare task list fragment.
func (h *TasksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, _ := CurrentUser(ctx)
	tx, _ := uow.FromContext(ctx)

	completed := r.URL.Query().Get("status") == "done"
	tasks, err := service.ListTasks(ctx, tx, user.ID, completed)
	if err != nil {
		uow.Fail(ctx)
		log.Error("list tasks", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not load tasks")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"tasks": taskValues(tasks)})
}

func (h *TasksHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, _ := CurrentUser(ctx)
	tx, _ := uow.FromContext(ctx)

	tasks, err := service.SearchTasks(ctx, tx, user.ID, r.URL.Query().Get("search"))
	if err != nil {
		uow.Fail(ctx)
		log.Error("search tasks", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not search tasks")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"tasks": taskValues(tasks)})
}

func (h *TasksHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, _ := CurrentUser(ctx)
	tx, _ := uow.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		uow.Fail(ctx)
		httpx.WriteError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	_, err := service.AddTask(ctx, tx, user.ID, formMap(r))
	if err != nil {
		uow.Fail(ctx)
		if errors.Is(err, domain.ErrInvalid) {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error("add task", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not add task")
		return
	}

	notifyTaskChange(w)
}

func (h *TasksHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, _ := CurrentUser(ctx)
	tx, _ := uow.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		uow.Fail(ctx)
		httpx.WriteError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	_, err := service.EditTask(ctx, tx, user.ID, r.PathValue("id"), formMap(r))
	if err != nil {
		uow.Fail(ctx)
		switch {
		case errors.Is(err, domain.ErrInvalid):
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "task not found")
		default:
			log.Error("edit task", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "could not edit task")
		}
		return
	}

	notifyTaskChange(w)
}

func (h *TasksHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, _ := CurrentUser(ctx)
	tx, _ := uow.FromContext(ctx)

	_, err := service.ToggleTask(ctx, tx, user.ID, r.PathValue("id"))
	if err != nil {
		uow.Fail(ctx)
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "task not found")
			return
		}
		log.Error("toggle task", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not toggle task")
		return
	}

	notifyTaskChange(w)
}

func (h *TasksHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, _ := CurrentUser(ctx)
	tx, _ := uow.FromContext(ctx)

	if err := service.DeleteTask(ctx, tx, user.ID, r.PathValue("id")); err != nil {
		uow.Fail(ctx)
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "task not found")
			return
		}
		log.Error("delete task", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not delete task")
		return
	}

	notifyTaskChange(w)
}

// notifyTaskChange answers a mutating fragment request: no body, plus the
// event header the board listens on to refresh its list.
func notifyTaskChange(w http.ResponseWriter) {
	w.Header().Set("HX-Trigger", "newTask")
	w.WriteHeader(http.StatusNoContent)
}

// formMap flattens the posted form to the flat key/value shape the
// services take. Repeated fields keep their first value.
func formMap(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.PostForm))
	for key, vals := range r.PostForm {
		if len(vals) > 0 {
			out[key] = vals[0]
		}
	}
	return out
}
