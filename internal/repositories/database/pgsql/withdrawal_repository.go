package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
)

// PgxWithdrawalRepository persists withdrawal requests and their holds.
type PgxWithdrawalRepository struct {
	BaseRepository
}

// NewWithdrawalRepository creates a new repository for withdrawal data.
func NewWithdrawalRepository(pool *pgxpool.Pool) portsrepo.WithdrawalRepository {
	return &PgxWithdrawalRepository{BaseRepository{Pool: pool}}
}

const withdrawalColumns = `withdrawal_id, user_id, amount, dest_currency, dest_amount, dest_details, status, proof_ref, rejection_reason, requested_at, resolved_at, created_at, created_by, last_updated_at, last_updated_by`

// HoldForWithdrawal reserves funds for a withdrawal. The conditional
// decrement (balance >= amount) is the same atomic statement as the
// comparison, so concurrent requests from one user serialize correctly:
// exactly the subset that fits is accepted, and the balance never goes
// negative. Zero affected rows fail with ErrInsufficientFunds and nothing
// is written.
func (r *PgxWithdrawalRepository) HoldForWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	holdQuery := `
		UPDATE wallets
		SET balance = balance - $2, last_updated_at = $3, last_updated_by = $1
		WHERE user_id = $1 AND balance >= $2;
	`
	cmdTag, err := tx.Exec(ctx, holdQuery, withdrawal.UserID, withdrawal.Amount, withdrawal.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to place hold for user %s: %w", withdrawal.UserID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrInsufficientFunds
	}

	insertQuery := `
		INSERT INTO withdrawals (withdrawal_id, user_id, amount, dest_currency, dest_amount, dest_details, status, requested_at, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = tx.Exec(ctx, insertQuery,
		withdrawal.WithdrawalID,
		withdrawal.UserID,
		withdrawal.Amount,
		withdrawal.DestCurrency,
		withdrawal.DestAmount,
		withdrawal.DestDetails,
		withdrawal.Status,
		withdrawal.RequestedAt,
		withdrawal.CreatedAt,
		withdrawal.CreatedBy,
		withdrawal.LastUpdatedAt,
		withdrawal.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert withdrawal %s: %w", withdrawal.WithdrawalID, err)
	}

	entryQuery := `
		INSERT INTO wallet_ledger (entry_id, user_id, amount, entry_type, memo, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = tx.Exec(ctx, entryQuery,
		uuid.NewString(),
		withdrawal.UserID,
		withdrawal.Amount.Neg(),
		domain.EntryWithdrawalHold,
		fmt.Sprintf("hold for withdrawal %s", withdrawal.WithdrawalID),
		withdrawal.RequestedAt,
		withdrawal.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert hold ledger entry for withdrawal %s: %w", withdrawal.WithdrawalID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit withdrawal hold %s: %w", withdrawal.WithdrawalID, err)
	}
	return nil
}

// RejectAndRelease flips a REQUESTED withdrawal to REJECTED, credits the
// amount back and posts the reversal entry, all atomically. This is the one
// compensating write in the model; everything else relies on rollback.
func (r *PgxWithdrawalRepository) RejectAndRelease(ctx context.Context, withdrawalID, reason, actorUserID string, now time.Time) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rejectQuery := `
		UPDATE withdrawals
		SET status = $2, rejection_reason = $3, resolved_at = $4, last_updated_at = $4, last_updated_by = $5
		WHERE withdrawal_id = $1 AND status = $6
		RETURNING user_id, amount;
	`
	var userID string
	var amount decimal.Decimal
	err = tx.QueryRow(ctx, rejectQuery, withdrawalID, domain.WithdrawalRejected, reason, now, actorUserID, domain.WithdrawalRequested).Scan(&userID, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrConcurrencyConflict
		}
		return fmt.Errorf("failed to reject withdrawal %s: %w", withdrawalID, err)
	}

	releaseQuery := `
		UPDATE wallets
		SET balance = balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE user_id = $1;
	`
	if _, err := tx.Exec(ctx, releaseQuery, userID, amount, now, actorUserID); err != nil {
		return fmt.Errorf("failed to release hold for withdrawal %s: %w", withdrawalID, err)
	}

	entryQuery := `
		INSERT INTO wallet_ledger (entry_id, user_id, amount, entry_type, memo, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = tx.Exec(ctx, entryQuery,
		uuid.NewString(),
		userID,
		amount,
		domain.EntryWithdrawalHoldReversal,
		fmt.Sprintf("hold reversal for withdrawal %s", withdrawalID),
		now,
		actorUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reversal entry for withdrawal %s: %w", withdrawalID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rejection of withdrawal %s: %w", withdrawalID, err)
	}
	return nil
}

// ResolveWithdrawal attaches proof and flips status to RESOLVED. The balance
// is untouched: funds were already removed when the hold was placed.
func (r *PgxWithdrawalRepository) ResolveWithdrawal(ctx context.Context, withdrawalID, proofRef, actorUserID string, now time.Time) error {
	query := `
		UPDATE withdrawals
		SET status = $2, proof_ref = $3, resolved_at = $4, last_updated_at = $4, last_updated_by = $5
		WHERE withdrawal_id = $1 AND status = $6;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, withdrawalID, domain.WithdrawalResolved, proofRef, now, actorUserID, domain.WithdrawalRequested)
	if err != nil {
		return fmt.Errorf("failed to resolve withdrawal %s: %w", withdrawalID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConcurrencyConflict
	}
	return nil
}

// FindWithdrawalByID retrieves a withdrawal by id.
func (r *PgxWithdrawalRepository) FindWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE withdrawal_id = $1;`
	withdrawal, err := scanWithdrawalRow(r.Pool.QueryRow(ctx, query, withdrawalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find withdrawal %s: %w", withdrawalID, err)
	}
	return withdrawal, nil
}

// ListWithdrawalsByUserID retrieves a user's withdrawals, newest first.
func (r *PgxWithdrawalRepository) ListWithdrawalsByUserID(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error) {
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY requested_at DESC
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals for user %s: %w", userID, err)
	}
	defer rows.Close()

	withdrawals := []domain.Withdrawal{}
	for rows.Next() {
		withdrawal, err := scanWithdrawalRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal row for user %s: %w", userID, err)
		}
		withdrawals = append(withdrawals, *withdrawal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawal rows for user %s: %w", userID, err)
	}
	return withdrawals, nil
}

func scanWithdrawalRow(row pgx.Row) (*domain.Withdrawal, error) {
	var w domain.Withdrawal
	var proofRef, rejectionReason sql.NullString
	err := row.Scan(
		&w.WithdrawalID,
		&w.UserID,
		&w.Amount,
		&w.DestCurrency,
		&w.DestAmount,
		&w.DestDetails,
		&w.Status,
		&proofRef,
		&rejectionReason,
		&w.RequestedAt,
		&w.ResolvedAt,
		&w.CreatedAt,
		&w.CreatedBy,
		&w.LastUpdatedAt,
		&w.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if proofRef.Valid {
		w.ProofRef = proofRef.String
	}
	if rejectionReason.Valid {
		w.RejectionReason = rejectionReason.String
	}
	return &w, nil
}
