package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
)

// PgxWalletRepository persists wallets and the append-only ledger.
type PgxWalletRepository struct {
	BaseRepository
}

// NewWalletRepository creates a new repository for wallet and ledger data.
func NewWalletRepository(pool *pgxpool.Pool) portsrepo.WalletRepositoryWithTx {
	return &PgxWalletRepository{BaseRepository{Pool: pool}}
}

// EnsureWallet creates the wallet row for a user if it does not exist.
func (r *PgxWalletRepository) EnsureWallet(ctx context.Context, userID string, now time.Time) error {
	query := `
		INSERT INTO wallets (user_id, balance, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, 0, $2, $1, $2, $1)
		ON CONFLICT (user_id) DO NOTHING;
	`
	if _, err := r.Pool.Exec(ctx, query, userID, now); err != nil {
		return fmt.Errorf("failed to ensure wallet for user %s: %w", userID, err)
	}
	return nil
}

// PostEntry inserts a ledger entry and applies it to the balance in one
// transaction.
func (r *PgxWalletRepository) PostEntry(ctx context.Context, entry domain.LedgerEntry, idempotent bool) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := r.PostEntryTx(ctx, tx, entry, idempotent); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ledger entry %s: %w", entry.EntryID, err)
	}
	return nil
}

// PostEntryTx inserts a ledger entry and applies it to the balance inside the
// caller's transaction. The ledger insert and the balance update are never
// observable independently, which is what prevents balance drift under
// retries or partial failures. When idempotent is set and the entry carries
// a reference order, an existing row with the same (user, type, ref order,
// amount) makes the call a silent no-op.
func (r *PgxWalletRepository) PostEntryTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry, idempotent bool) error {
	walletQuery := `
		INSERT INTO wallets (user_id, balance, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, 0, $2, $1, $2, $1)
		ON CONFLICT (user_id) DO NOTHING;
	`
	if _, err := tx.Exec(ctx, walletQuery, entry.UserID, entry.CreatedAt); err != nil {
		return fmt.Errorf("failed to ensure wallet for user %s: %w", entry.UserID, err)
	}

	if idempotent && entry.RefOrderID != nil {
		checkQuery := `
			SELECT EXISTS (
				SELECT 1 FROM wallet_ledger
				WHERE user_id = $1 AND entry_type = $2 AND ref_order_id = $3 AND amount = $4
			);
		`
		var exists bool
		if err := tx.QueryRow(ctx, checkQuery, entry.UserID, entry.EntryType, *entry.RefOrderID, entry.Amount).Scan(&exists); err != nil {
			return fmt.Errorf("failed idempotency check for user %s order %s: %w", entry.UserID, *entry.RefOrderID, err)
		}
		if exists {
			// Already applied; a retried settlement must not double-credit.
			return nil
		}
	}

	// A debit only applies while the resulting balance stays non-negative.
	// The comparison and the decrement are one atomic statement, which is how
	// non-negative balances hold under concurrency without an explicit lock.
	if entry.Amount.IsNegative() {
		debitQuery := `
			UPDATE wallets
			SET balance = balance + $2, last_updated_at = $3, last_updated_by = $4
			WHERE user_id = $1 AND balance + $2 >= 0;
		`
		cmdTag, err := tx.Exec(ctx, debitQuery, entry.UserID, entry.Amount, entry.CreatedAt, entry.CreatedBy)
		if err != nil {
			return fmt.Errorf("failed to debit wallet of user %s: %w", entry.UserID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrInsufficientFunds
		}
	} else {
		creditQuery := `
			UPDATE wallets
			SET balance = balance + $2, last_updated_at = $3, last_updated_by = $4
			WHERE user_id = $1;
		`
		if _, err := tx.Exec(ctx, creditQuery, entry.UserID, entry.Amount, entry.CreatedAt, entry.CreatedBy); err != nil {
			return fmt.Errorf("failed to credit wallet of user %s: %w", entry.UserID, err)
		}
	}

	insertQuery := `
		INSERT INTO wallet_ledger (entry_id, user_id, amount, entry_type, ref_order_id, memo, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := tx.Exec(ctx, insertQuery,
		entry.EntryID,
		entry.UserID,
		entry.Amount,
		entry.EntryType,
		entry.RefOrderID,
		entry.Memo,
		entry.CreatedAt,
		entry.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry %s: %w", entry.EntryID, err)
	}
	return nil
}

// FindWalletByUserID retrieves a user's wallet row.
func (r *PgxWalletRepository) FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `
		SELECT user_id, balance, created_at, created_by, last_updated_at, last_updated_by
		FROM wallets
		WHERE user_id = $1;
	`
	var wallet domain.Wallet
	err := r.Pool.QueryRow(ctx, query, userID).Scan(
		&wallet.UserID,
		&wallet.Balance,
		&wallet.CreatedAt,
		&wallet.CreatedBy,
		&wallet.LastUpdatedAt,
		&wallet.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find wallet for user %s: %w", userID, err)
	}
	return &wallet, nil
}

// ListEntriesByUserID retrieves a user's ledger entries, newest first.
func (r *PgxWalletRepository) ListEntriesByUserID(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	query := `
		SELECT entry_id, user_id, amount, entry_type, ref_order_id, memo, created_at, created_by
		FROM wallet_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC, entry_id
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries for user %s: %w", userID, err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		var entry domain.LedgerEntry
		if err := rows.Scan(
			&entry.EntryID,
			&entry.UserID,
			&entry.Amount,
			&entry.EntryType,
			&entry.RefOrderID,
			&entry.Memo,
			&entry.CreatedAt,
			&entry.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry row for user %s: %w", userID, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entry rows for user %s: %w", userID, err)
	}
	return entries, nil
}
