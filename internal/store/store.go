// Package store defines the persistence gateway: the interfaces the rest of
// the application talks to, the error kinds drivers must translate to, and
// the static registry of persisted entities.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/taskorbit/taskorbit/internal/domain"
)

var (
	// ErrNotFound means a requested entity id does not resolve.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict means a uniqueness or foreign-key constraint was
	// violated. Expected and recoverable, e.g. racing registrations.
	ErrConflict = errors.New("store: integrity conflict")

	// ErrUnavailable means the database cannot be reached. Fatal for the
	// current request.
	ErrUnavailable = errors.New("store: storage unavailable")

	// ErrEmptyMatch guards bulk updates and deletes: an empty match map
	// would touch the whole table and is always rejected.
	ErrEmptyMatch = errors.New("store: empty match columns")

	// ErrBadField means a filter, match or update referenced a column the
	// entity does not have.
	ErrBadField = errors.New("store: unknown column")
)

// Filters is a conjunctive (AND) column filter. A scalar value is an
// equality test; a slice value ([]string or []any) is a membership test.
type Filters map[string]any

// Store is the root data access interface, implemented by the sqlite and
// postgres drivers. Handlers never use it directly — they go through the
// per-request Tx opened by the unit-of-work middleware.
type Store interface {
	Users() Users
	Tasks() Tasks

	// ApplyMigrations brings the schema up to date. No-op on a Tx.
	ApplyMigrations() error

	// Tx starts a unit-of-work bound to one pooled connection. The caller
	// must finish it with exactly one Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases the underlying pool.
	Close() error

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Must not be reused after Commit or Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetByID resolves a claimed user id. ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (domain.User, error)

	// GetByName looks a user up by login handle.
	GetByName(ctx context.Context, name string) (domain.User, error)

	// Create inserts a new user. The id is assigned by the caller (ULID).
	// Duplicate names surface as ErrConflict from the unique constraint.
	Create(ctx context.Context, u domain.User) error

	// SetLastLogin records a successful authentication.
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}

type Tasks interface {
	// GetByID fetches one task. ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (domain.Task, error)

	// Create inserts a new task with a caller-assigned id.
	Create(ctx context.Context, t domain.Task) error

	// Update applies a partial update to the task with the given id.
	// Unknown columns are rejected with ErrBadField.
	Update(ctx context.Context, id string, updates map[string]any) error

	// Delete removes the task with the given id.
	Delete(ctx context.Context, id string) error

	// ForUser lists a user's tasks by completion state. Completed tasks
	// come most recently accomplished first, active tasks alphabetically.
	ForUser(ctx context.Context, userID string, completed bool) ([]domain.Task, error)

	// Search matches text case-insensitively against name or description,
	// scoped to the user. Empty text matches every task of the user;
	// callers wanting "empty means active list" must short-circuit first.
	Search(ctx context.Context, userID, text string) ([]domain.Task, error)
}
