package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid marks malformed or missing input. Wrapped errors carry the
// field-level detail.
var ErrInvalid = errors.New("domain: invalid input")

// Task is a single item on a user's list. TsAccomplished is the sole
// source of truth for completion: nil means active, non-nil records the
// completion instant.
type Task struct {
	ID             string
	UserID         string
	Name           string
	Description    string
	TsAccomplished *time.Time
	TsDeadline     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Done reports whether the task has been completed.
func (t Task) Done() bool { return t.TsAccomplished != nil }

// Values flattens the task for view serialization.
func (t Task) Values() map[string]any {
	return map[string]any{
		"id":             t.ID,
		"user_id":        t.UserID,
		"name":           t.Name,
		"description":    t.Description,
		"ts_acomplished": t.TsAccomplished,
		"ts_deadline":    t.TsDeadline,
		"created_at":     t.CreatedAt,
		"updated_at":     t.UpdatedAt,
	}
}

// TaskFromForm builds a new Task owned by userID from flat form input.
// Recognised keys: name (required), description, ts_deadline (RFC 3339).
func TaskFromForm(userID string, form map[string]string) (Task, error) {
	name := strings.TrimSpace(form["name"])
	if name == "" {
		return Task{}, fmt.Errorf("%w: task name must not be empty", ErrInvalid)
	}

	task := Task{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(form["description"]),
	}

	if raw := strings.TrimSpace(form["ts_deadline"]); raw != "" {
		deadline, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Task{}, fmt.Errorf("%w: ts_deadline is not an RFC 3339 timestamp", ErrInvalid)
		}
		task.TsDeadline = &deadline
	}

	return task, nil
}
