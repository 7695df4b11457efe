package users

import (
	"context"
	"errors"

	"gatehouse/internal/domain"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrUsernameTaken is returned when a username is already registered.
var ErrUsernameTaken = errors.New("username already exists")

// Repository defines persistence operations for users.
type Repository interface {
	GetUserByID(ctx context.Context, id int) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	UpdateUserTOTP(ctx context.Context, userID int, secret string) error
	CountUsers(ctx context.Context) (int, error)
}
