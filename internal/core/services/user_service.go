package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/dto"
)

// userService manages operator and administrator accounts.
type userService struct {
	userRepo portsrepo.UserRepository
}

// NewUserService creates a new user service.
func NewUserService(userRepo portsrepo.UserRepository) portssvc.UserSvcFacade {
	return &userService{userRepo: userRepo}
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

// CreateUser registers a new user. The sponsor reference, when present, must
// point at an existing user; it is a weak reference, never an owning pointer.
func (s *userService) CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error) {
	if req.SponsorUserID != nil {
		if _, err := s.userRepo.FindUserByID(ctx, *req.SponsorUserID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: sponsor user %s not found", apperrors.ErrValidation, *req.SponsorUserID)
			}
			return nil, fmt.Errorf("failed to validate sponsor %s: %w", *req.SponsorUserID, err)
		}
	}

	now := time.Now()
	user := domain.User{
		UserID:        uuid.NewString(),
		Name:          req.Name,
		Role:          domain.UserRole(req.Role),
		SponsorUserID: req.SponsorUserID,
		IsActive:      true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by id.
func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.FindUserByID(ctx, userID)
}

// ListUsers retrieves all active users.
func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.ListUsers(ctx)
}
