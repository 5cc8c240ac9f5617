package repository

import (
	"context"

	"dispatch/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create adds a new user. An email collision returns ErrDuplicate.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetAll retrieves all users, newest first.
	GetAll(ctx context.Context) ([]*domain.User, error)

	// GetByRole retrieves all users with the given role, oldest first.
	GetByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user by ID.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every user. Administrative bulk clear only.
	DeleteAll(ctx context.Context) error
}
