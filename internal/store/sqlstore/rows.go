package sqlstore

import (
	"database/sql"
	"time"

	"github.com/taskorbit/taskorbit/internal/domain"
)

type userRow struct {
	ID             string       `db:"id"`
	Name           string       `db:"name"`
	HashedPassword string       `db:"hashed_password"`
	LastLoginTS    sql.NullTime `db:"last_login_ts"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

type taskRow struct {
	ID            string       `db:"id"`
	UserID        string       `db:"user_id"`
	Name          string       `db:"name"`
	Description   string       `db:"description"`
	TsAcomplished sql.NullTime `db:"ts_acomplished"`
	TsDeadline    sql.NullTime `db:"ts_deadline"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

func (r userRow) domain() domain.User {
	return domain.User{
		ID:             r.ID,
		Name:           r.Name,
		HashedPassword: r.HashedPassword,
		LastLoginTS:    nullTimePtr(r.LastLoginTS),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (r taskRow) domain() domain.Task {
	return domain.Task{
		ID:             r.ID,
		UserID:         r.UserID,
		Name:           r.Name,
		Description:    r.Description,
		TsAccomplished: nullTimePtr(r.TsAcomplished),
		TsDeadline:     nullTimePtr(r.TsDeadline),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func ptrNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func taskRows(rows []taskRow) []domain.Task {
	out := make([]domain.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out
}
