// Package store persists user accounts.
package store

import (
	"context"

	"kidsearch/internal/auth/models"
)

// Store persists users. Implementations must return sentinel.ErrNotFound
// when a lookup misses and sentinel.ErrConflict on duplicate emails.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
}
