package services

import (
	"context"

	"github.com/remitwave/settlement_engine/internal/core/domain"
	"github.com/remitwave/settlement_engine/internal/dto"
)

// UserSvcFacade manages operator and administrator accounts.
type UserSvcFacade interface {
	// CreateUser registers a new user, validating the optional sponsor
	// reference.
	CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error)

	// GetUserByID retrieves a user by id.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)

	// ListUsers retrieves all active users.
	ListUsers(ctx context.Context) ([]domain.User, error)
}
