// Package service holds the application logic between the HTTP handlers and
// the store. Every function runs against the store handed to it, which in
// practice is the request's open transaction.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskorbit/taskorbit/internal/domain"
	"github.com/taskorbit/taskorbit/internal/store"
	"github.com/taskorbit/taskorbit/pkg/cryptox"
	"github.com/taskorbit/taskorbit/pkg/idx"
)

// ErrBadCredentials is returned for any login failure. It deliberately does
// not distinguish an unknown name from a wrong password.
var ErrBadCredentials = errors.New("incorrect username or password")

const minPasswordLength = 8

// Register creates a new account. Name uniqueness is enforced by the store;
// a taken name surfaces as store.ErrConflict.
func Register(ctx context.Context, st store.Store, name, password string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateUserName(name); err != nil {
		return domain.User{}, err
	}
	if len(password) < minPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters",
			domain.ErrInvalid, minPasswordLength)
	}

	digest, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:             idx.New().String(),
		Name:           name,
		HashedPassword: digest,
	}
	if err := st.Users().Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login checks the credentials and records the login time on success.
func Login(ctx context.Context, st store.Store, name, password string) (domain.User, error) {
	user, err := st.Users().GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrBadCredentials
		}
		return domain.User{}, err
	}

	if !cryptox.VerifyPassword(password, user.HashedPassword) {
		return domain.User{}, ErrBadCredentials
	}

	now := time.Now().UTC()
	if err := st.Users().SetLastLogin(ctx, user.ID, now); err != nil {
		return domain.User{}, err
	}
	user.LastLoginTS = &now
	return user, nil
}
