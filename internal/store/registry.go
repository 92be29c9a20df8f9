package store

import "slices"

// Descriptor describes one persisted entity type: its table and columns.
// The registry below is built at init time — no runtime discovery.
type Descriptor struct {
	Name    string // entity name
	Table   string // base table name, before prefix or schema qualification
	Primary string // primary key column
	Columns []string
}

// HasColumn reports whether col is a declared column of the entity.
func (d Descriptor) HasColumn(col string) bool {
	return slices.Contains(d.Columns, col)
}

var (
	// UserEntity describes the user table.
	UserEntity = Descriptor{
		Name:    "user",
		Table:   "user",
		Primary: "id",
		Columns: []string{
			"id", "name", "hashed_password", "last_login_ts",
			"created_at", "updated_at",
		},
	}

	// TaskEntity describes the task table. user_id references user(id)
	// with ON DELETE CASCADE.
	TaskEntity = Descriptor{
		Name:    "task",
		Table:   "task",
		Primary: "id",
		Columns: []string{
			"id", "user_id", "name", "description", "ts_acomplished",
			"ts_deadline", "created_at", "updated_at",
		},
	}
)

// Entities returns the full registry.
func Entities() []Descriptor {
	return []Descriptor{UserEntity, TaskEntity}
}
