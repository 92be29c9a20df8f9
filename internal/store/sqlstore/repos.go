package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/taskorbit/taskorbit/internal/domain"
	"github.com/taskorbit/taskorbit/internal/store"
)

type usersRepo struct {
	r runner
}

func (u *usersRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	row, err := fetchOne[userRow](ctx, u.r, store.UserEntity, id)
	if err != nil {
		return domain.User{}, err
	}
	return row.domain(), nil
}

func (u *usersRepo) GetByName(ctx context.Context, name string) (domain.User, error) {
	rows, err := fetchWhere[userRow](ctx, u.r, store.UserEntity, store.Filters{"name": name}, "")
	if err != nil {
		return domain.User{}, err
	}
	if len(rows) == 0 {
		return domain.User{}, store.ErrNotFound
	}
	return rows[0].domain(), nil
}

func (u *usersRepo) Create(ctx context.Context, user domain.User) error {
	now := time.Now().UTC()
	return insertRow(ctx, u.r, store.UserEntity, map[string]any{
		"id":              user.ID,
		"name":            user.Name,
		"hashed_password": user.HashedPassword,
		"last_login_ts":   ptrNullTime(user.LastLoginTS),
		"created_at":      now,
		"updated_at":      now,
	})
}

func (u *usersRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return updateWhere(ctx, u.r, store.UserEntity,
		map[string]any{"id": id},
		map[string]any{"last_login_ts": at.UTC()},
	)
}

type tasksRepo struct {
	r runner
}

func (t *tasksRepo) GetByID(ctx context.Context, id string) (domain.Task, error) {
	row, err := fetchOne[taskRow](ctx, t.r, store.TaskEntity, id)
	if err != nil {
		return domain.Task{}, err
	}
	return row.domain(), nil
}

func (t *tasksRepo) Create(ctx context.Context, task domain.Task) error {
	now := time.Now().UTC()
	return insertRow(ctx, t.r, store.TaskEntity, map[string]any{
		"id":             task.ID,
		"user_id":        task.UserID,
		"name":           task.Name,
		"description":    task.Description,
		"ts_acomplished": ptrNullTime(task.TsAccomplished),
		"ts_deadline":    ptrNullTime(task.TsDeadline),
		"created_at":     now,
		"updated_at":     now,
	})
}

func (t *tasksRepo) Update(ctx context.Context, id string, updates map[string]any) error {
	return updateWhere(ctx, t.r, store.TaskEntity, map[string]any{"id": id}, updates)
}

func (t *tasksRepo) Delete(ctx context.Context, id string) error {
	return deleteWhere(ctx, t.r, store.TaskEntity, map[string]any{"id": id})
}

func (t *tasksRepo) ForUser(ctx context.Context, userID string, completed bool) ([]domain.Task, error) {
	d := store.TaskEntity

	where := "user_id = ? AND ts_acomplished IS NULL"
	order := " ORDER BY name ASC"
	if completed {
		where = "user_id = ? AND ts_acomplished IS NOT NULL"
		order = " ORDER BY ts_acomplished DESC"
	}

	q := "SELECT " + strings.Join(d.Columns, ", ") + " FROM " + t.r.table(d) +
		" WHERE " + where + order

	rows, err := selectTasks(ctx, t.r, q, userID)
	if err != nil {
		return nil, err
	}
	return taskRows(rows), nil
}

// Search matches text as a case-insensitive infix of name or description.
// The pattern wraps text with wildcards on both sides, so empty text
// matches every task the user owns; callers short-circuit empty input.
func (t *tasksRepo) Search(ctx context.Context, userID, text string) ([]domain.Task, error) {
	d := store.TaskEntity
	pattern := "%" + strings.ToLower(text) + "%"

	q := "SELECT " + strings.Join(d.Columns, ", ") + " FROM " + t.r.table(d) +
		" WHERE user_id = ? AND (lower(name) LIKE ? OR lower(description) LIKE ?)" +
		" ORDER BY name ASC"

	rows, err := selectTasks(ctx, t.r, q, userID, pattern, pattern)
	if err != nil {
		return nil, err
	}
	return taskRows(rows), nil
}

func selectTasks(ctx context.Context, r runner, q string, args ...any) ([]taskRow, error) {
	rows := []taskRow{}
	if err := sqlxSelect(ctx, r, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
