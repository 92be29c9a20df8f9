// Package domain defines the persisted entities and their structural
// constraints. No business logic lives here beyond field shape and the
// flat-map conversions used to build entities from form input and to
// serialize them for views.
package domain

import (
	"fmt"
	"strings"
	"time"
)

const maxNameLength = 50

// User is a registered account. Name doubles as the login handle and is
// unique across all users.
type User struct {
	ID             string
	Name           string
	HashedPassword string // credential digest, never a plaintext
	LastLoginTS    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Values flattens the user for view serialization. The password digest is
// deliberately absent; it never leaves the persistence and auth layers.
func (u User) Values() map[string]any {
	return map[string]any{
		"id":            u.ID,
		"name":          u.Name,
		"last_login_ts": u.LastLoginTS,
		"created_at":    u.CreatedAt,
		"updated_at":    u.UpdatedAt,
	}
}

// ValidateUserName enforces the login-handle shape: non-empty after
// trimming, at most 50 characters.
func ValidateUserName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalid)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalid, maxNameLength)
	}
	return nil
}
