package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/core/domain"
	"github.com/remitwave/settlement_engine/internal/dto"
)

// WalletSvcFacade exposes wallet and withdrawal operations to both the
// self-service and administrative layers.
type WalletSvcFacade interface {
	// GetBalance retrieves a user's materialized settlement-currency balance.
	GetBalance(ctx context.Context, userID string) (decimal.Decimal, error)

	// ListEntries retrieves a user's ledger entries, newest first.
	ListEntries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error)

	// PostAdjustment posts a manual ADJUSTMENT ledger entry (administrative).
	PostAdjustment(ctx context.Context, userID string, amount decimal.Decimal, memo, actorUserID string) error

	// RequestWithdrawal places a hold for the requested amount. Fails with
	// apperrors.ErrInsufficientFunds when the balance does not cover it.
	RequestWithdrawal(ctx context.Context, userID string, req dto.RequestWithdrawalRequest) (*domain.Withdrawal, error)

	// GetWithdrawal retrieves a withdrawal by id.
	GetWithdrawal(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error)

	// ListWithdrawals retrieves a user's withdrawals, newest first.
	ListWithdrawals(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error)

	// RejectWithdrawal rejects a REQUESTED withdrawal and releases the hold.
	RejectWithdrawal(ctx context.Context, withdrawalID, reason, actorUserID string) error

	// ResolveWithdrawal attaches payout proof and marks the withdrawal
	// RESOLVED without touching the balance.
	ResolveWithdrawal(ctx context.Context, withdrawalID, proofRef, actorUserID string) error
}
