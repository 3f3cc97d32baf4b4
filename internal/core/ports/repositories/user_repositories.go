package repositories

import (
	"context"

	"github.com/remitwave/settlement_engine/internal/core/domain"
)

// UserRepository persists operator and administrator accounts.
type UserRepository interface {
	// SaveUser inserts a new user.
	SaveUser(ctx context.Context, user domain.User) error

	// FindUserByID retrieves a user by id.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// ListUsers retrieves all active users.
	ListUsers(ctx context.Context) ([]domain.User, error)
}
