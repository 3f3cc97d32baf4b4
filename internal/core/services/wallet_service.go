package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/dto"
	"github.com/remitwave/settlement_engine/internal/middleware"
)

// minRejectReasonLen is the minimum length of a withdrawal rejection reason.
const minRejectReasonLen = 5

// walletService exposes wallet and withdrawal operations.
type walletService struct {
	walletRepo     portsrepo.WalletRepositoryWithTx
	withdrawalRepo portsrepo.WithdrawalRepository
	userRepo       portsrepo.UserRepository
}

// NewWalletService creates a new wallet service.
func NewWalletService(walletRepo portsrepo.WalletRepositoryWithTx, withdrawalRepo portsrepo.WithdrawalRepository, userRepo portsrepo.UserRepository) portssvc.WalletSvcFacade {
	return &walletService{
		walletRepo:     walletRepo,
		withdrawalRepo: withdrawalRepo,
		userRepo:       userRepo,
	}
}

var _ portssvc.WalletSvcFacade = (*walletService)(nil)

// GetBalance retrieves a user's materialized balance. A user without a wallet
// row has a zero balance.
func (s *walletService) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	wallet, err := s.walletRepo.FindWalletByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

// ListEntries retrieves a user's ledger entries, newest first.
func (s *walletService) ListEntries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	return s.walletRepo.ListEntriesByUserID(ctx, userID, limit)
}

// PostAdjustment posts a manual ADJUSTMENT entry. A negative adjustment that
// would drive the balance below zero fails with ErrInsufficientFunds.
func (s *walletService) PostAdjustment(ctx context.Context, userID string, amount decimal.Decimal, memo, actorUserID string) error {
	if amount.IsZero() {
		return fmt.Errorf("%w: adjustment amount cannot be zero", apperrors.ErrValidation)
	}
	if strings.TrimSpace(memo) == "" {
		return fmt.Errorf("%w: adjustment memo is required", apperrors.ErrValidation)
	}
	if _, err := s.userRepo.FindUserByID(ctx, userID); err != nil {
		return err
	}

	now := time.Now()
	if err := s.walletRepo.EnsureWallet(ctx, userID, now); err != nil {
		return err
	}
	entry := domain.LedgerEntry{
		EntryID:   uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		EntryType: domain.EntryAdjustment,
		Memo:      memo,
		CreatedAt: now,
		CreatedBy: actorUserID,
	}
	if err := s.walletRepo.PostEntry(ctx, entry, false); err != nil {
		return err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Manual adjustment posted",
		slog.String("user_id", userID),
		slog.String("amount", amount.String()),
		slog.String("actor", actorUserID),
	)
	return nil
}

// RequestWithdrawal places a hold for the requested amount. The conditional
// balance decrement in the repository is what serializes concurrent requests
// from the same user: exactly the subset that fits is accepted.
func (s *walletService) RequestWithdrawal(ctx context.Context, userID string, req dto.RequestWithdrawalRequest) (*domain.Withdrawal, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", apperrors.ErrValidation)
	}
	if !req.DestAmount.IsPositive() {
		return nil, fmt.Errorf("%w: destination amount must be positive", apperrors.ErrValidation)
	}
	if _, err := s.userRepo.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.walletRepo.EnsureWallet(ctx, userID, now); err != nil {
		return nil, err
	}

	withdrawal := domain.Withdrawal{
		WithdrawalID: uuid.NewString(),
		UserID:       userID,
		Amount:       req.Amount,
		DestCurrency: strings.ToUpper(req.DestCurrency),
		DestAmount:   req.DestAmount,
		DestDetails:  req.DestDetails,
		Status:       domain.WithdrawalRequested,
		RequestedAt:  now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.withdrawalRepo.HoldForWithdrawal(ctx, withdrawal); err != nil {
		return nil, err
	}

	middleware.GetLoggerFromCtx(ctx).Info("Withdrawal hold placed",
		slog.String("withdrawal_id", withdrawal.WithdrawalID),
		slog.String("user_id", userID),
		slog.String("amount", req.Amount.String()),
	)
	return &withdrawal, nil
}

// GetWithdrawal retrieves a withdrawal by id.
func (s *walletService) GetWithdrawal(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	return s.withdrawalRepo.FindWithdrawalByID(ctx, withdrawalID)
}

// ListWithdrawals retrieves a user's withdrawals, newest first.
func (s *walletService) ListWithdrawals(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error) {
	return s.withdrawalRepo.ListWithdrawalsByUserID(ctx, userID, limit)
}

// RejectWithdrawal rejects a REQUESTED withdrawal and releases the hold.
func (s *walletService) RejectWithdrawal(ctx context.Context, withdrawalID, reason, actorUserID string) error {
	if len(strings.TrimSpace(reason)) < minRejectReasonLen {
		return fmt.Errorf("%w: rejection reason must be at least %d characters", apperrors.ErrValidation, minRejectReasonLen)
	}

	err := s.withdrawalRepo.RejectAndRelease(ctx, withdrawalID, reason, actorUserID, time.Now())
	if err != nil {
		return s.diagnoseResolutionFailure(ctx, err, withdrawalID)
	}
	return nil
}

// ResolveWithdrawal attaches proof and flips status to RESOLVED. The balance
// is untouched: funds were removed when the hold was placed.
func (s *walletService) ResolveWithdrawal(ctx context.Context, withdrawalID, proofRef, actorUserID string) error {
	if strings.TrimSpace(proofRef) == "" {
		return fmt.Errorf("%w: payout proof reference is required", apperrors.ErrValidation)
	}

	err := s.withdrawalRepo.ResolveWithdrawal(ctx, withdrawalID, proofRef, actorUserID, time.Now())
	if err != nil {
		return s.diagnoseResolutionFailure(ctx, err, withdrawalID)
	}
	return nil
}

// diagnoseResolutionFailure turns a zero-rows conditional update into the
// precise error: missing withdrawal or one already resolved/rejected.
func (s *walletService) diagnoseResolutionFailure(ctx context.Context, cause error, withdrawalID string) error {
	if !errors.Is(cause, apperrors.ErrConcurrencyConflict) {
		return cause
	}
	withdrawal, err := s.withdrawalRepo.FindWithdrawalByID(ctx, withdrawalID)
	if err != nil {
		return err
	}
	if withdrawal.Status != domain.WithdrawalRequested {
		return fmt.Errorf("%w: withdrawal %s is already %s", apperrors.ErrInvalidTransition, withdrawalID, withdrawal.Status)
	}
	return cause
}
