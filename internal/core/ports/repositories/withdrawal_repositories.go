package repositories

import (
	"context"
	"time"

	"github.com/remitwave/settlement_engine/internal/core/domain"
)

// WithdrawalRepository persists withdrawal requests. Hold and release are
// atomic operations spanning the wallets, wallet_ledger and withdrawals
// tables; the conditional balance decrement is what enforces non-negative
// balances under concurrent requests.
type WithdrawalRepository interface {
	// FindWithdrawalByID retrieves a withdrawal by id.
	FindWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error)

	// ListWithdrawalsByUserID retrieves a user's withdrawals, newest first.
	ListWithdrawalsByUserID(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error)

	// HoldForWithdrawal performs the conditional decrement
	// (balance = balance - amount WHERE balance >= amount) and, only if a row
	// was affected, inserts the withdrawal and its WITHDRAWAL_HOLD ledger
	// entry. Zero affected rows fail with apperrors.ErrInsufficientFunds and
	// nothing is written.
	HoldForWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error

	// RejectAndRelease flips a REQUESTED withdrawal to REJECTED, credits the
	// amount back and posts the WITHDRAWAL_HOLD_REVERSAL entry atomically.
	RejectAndRelease(ctx context.Context, withdrawalID, reason, actorUserID string, now time.Time) error

	// ResolveWithdrawal attaches proof and flips status to RESOLVED. It never
	// touches the balance: the funds were removed at request time.
	ResolveWithdrawal(ctx context.Context, withdrawalID, proofRef, actorUserID string, now time.Time) error
}
