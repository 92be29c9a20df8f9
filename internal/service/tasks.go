package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taskorbit/taskorbit/internal/domain"
	"github.com/taskorbit/taskorbit/internal/store"
	"github.com/taskorbit/taskorbit/pkg/idx"
)

// ListTasks returns the user's tasks, active or completed.
func ListTasks(ctx context.Context, st store.Store, userID string, completed bool) ([]domain.Task, error) {
	return st.Tasks().ForUser(ctx, userID, completed)
}

// AddTask creates a task for userID from flat form input.
func AddTask(ctx context.Context, st store.Store, userID string, form map[string]string) (domain.Task, error) {
	task, err := domain.TaskFromForm(userID, form)
	if err != nil {
		return domain.Task{}, err
	}
	task.ID = idx.New().String()

	if err := st.Tasks().Create(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// EditTask applies name/description/deadline changes to a task the user owns.
func EditTask(ctx context.Context, st store.Store, userID, taskID string, form map[string]string) (domain.Task, error) {
	task, err := ownedTask(ctx, st, userID, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	updates := map[string]any{}
	if name, ok := form["name"]; ok {
		name = strings.TrimSpace(name)
		if name == "" {
			return domain.Task{}, fmt.Errorf("%w: task name must not be empty", domain.ErrInvalid)
		}
		updates["name"] = name
		task.Name = name
	}
	if desc, ok := form["description"]; ok {
		desc = strings.TrimSpace(desc)
		updates["description"] = desc
		task.Description = desc
	}
	if raw, ok := form["ts_deadline"]; ok {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			updates["ts_deadline"] = nil
			task.TsDeadline = nil
		} else {
			deadline, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return domain.Task{}, fmt.Errorf("%w: ts_deadline is not an RFC 3339 timestamp", domain.ErrInvalid)
			}
			updates["ts_deadline"] = deadline
			task.TsDeadline = &deadline
		}
	}
	if len(updates) == 0 {
		return task, nil
	}

	if err := st.Tasks().Update(ctx, taskID, updates); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// ToggleTask flips completion: an active task gets stamped done now, a done
// task reverts to active. Toggling twice restores the original state.
func ToggleTask(ctx context.Context, st store.Store, userID, taskID string) (domain.Task, error) {
	task, err := ownedTask(ctx, st, userID, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	if task.Done() {
		task.TsAccomplished = nil
		err = st.Tasks().Update(ctx, taskID, map[string]any{"ts_acomplished": nil})
	} else {
		now := time.Now().UTC()
		task.TsAccomplished = &now
		err = st.Tasks().Update(ctx, taskID, map[string]any{"ts_acomplished": now})
	}
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task the user owns.
func DeleteTask(ctx context.Context, st store.Store, userID, taskID string) error {
	if _, err := ownedTask(ctx, st, userID, taskID); err != nil {
		return err
	}
	return st.Tasks().Delete(ctx, taskID)
}

// SearchTasks matches text against task names and descriptions, case
// insensitively. Empty text falls back to the active-task list.
func SearchTasks(ctx context.Context, st store.Store, userID, text string) ([]domain.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return st.Tasks().ForUser(ctx, userID, false)
	}
	return st.Tasks().Search(ctx, userID, text)
}

// ownedTask loads the task and hides other users' tasks behind ErrNotFound,
// so an ID probe cannot reveal that a task exists.
func ownedTask(ctx context.Context, st store.Store, userID, taskID string) (domain.Task, error) {
	task, err := st.Tasks().GetByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if task.UserID != userID {
		return domain.Task{}, fmt.Errorf("%w: task %s", store.ErrNotFound, taskID)
	}
	return task, nil
}
