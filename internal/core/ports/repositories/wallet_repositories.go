package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/remitwave/settlement_engine/internal/core/domain"
)

// WalletReader defines read operations for wallet and ledger data.
type WalletReader interface {
	// FindWalletByUserID retrieves a user's wallet row.
	FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error)

	// ListEntriesByUserID retrieves a user's ledger entries, newest first.
	ListEntriesByUserID(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error)
}

// WalletWriter defines write operations for wallet and ledger data. Every
// method keeps the ledger insert and the balance update in one atomic unit.
type WalletWriter interface {
	// EnsureWallet creates the wallet row for a user if it does not exist.
	EnsureWallet(ctx context.Context, userID string, now time.Time) error

	// PostEntry inserts a ledger entry and applies its amount to the wallet
	// balance atomically. When idempotent is true and the entry carries a
	// reference order id, an existing row with the same (user, type, ref
	// order, amount) makes the call a silent no-op.
	PostEntry(ctx context.Context, entry domain.LedgerEntry, idempotent bool) error

	// PostEntryTx is PostEntry inside the caller's transaction, used by the
	// settlement reconciler so postings commit atomically with the order
	// status write.
	PostEntryTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry, idempotent bool) error
}

// WalletRepository combines all wallet repository interfaces.
type WalletRepository interface {
	WalletReader
	WalletWriter
}

// WalletRepositoryWithTx extends WalletRepository with transaction capabilities.
type WalletRepositoryWithTx interface {
	WalletRepository
	TransactionManager
}
