package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/core/domain"
)

// OrderReader defines read operations for order data.
type OrderReader interface {
	// FindOrderByID retrieves an order by its internal identifier.
	FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error)

	// FindOrderByPublicID retrieves an order by its public sequential number.
	FindOrderByPublicID(ctx context.Context, publicID int64) (*domain.Order, error)

	// ListOrdersByOperator retrieves orders owned by one operator, newest first.
	ListOrdersByOperator(ctx context.Context, operatorID string, limit int) ([]domain.Order, error)
}

// OrderWriter defines write operations for order data. Status mutations are
// conditional updates: the guard predicate is the set of allowed predecessor
// statuses, so concurrent transition attempts cannot both succeed.
type OrderWriter interface {
	// CreateOrder assigns the next public id from the dedicated order counter
	// and inserts the order, both inside one transaction.
	CreateOrder(ctx context.Context, order *domain.Order) error

	// UpdateStatus moves an order to the target status if its current status
	// is in allowedFrom. Returns apperrors.ErrConcurrencyConflict when zero
	// rows are affected.
	UpdateStatus(ctx context.Context, orderID string, allowedFrom []domain.OrderStatus, target domain.OrderStatus, actorUserID string, now time.Time) error

	// CancelOrder moves a non-terminal order to CANCELLED with a reason.
	CancelOrder(ctx context.Context, orderID, reason, actorUserID string, now time.Time) error

	// ClaimAwaitingProof sets the awaiting-paid-proof flag on an IN_PROGRESS
	// order, failing with apperrors.ErrConcurrencyConflict if the claim is
	// already held or the order is not in progress.
	ClaimAwaitingProof(ctx context.Context, orderID, actorUserID string, now time.Time) error

	// MarkPaidTx transitions an IN_PROGRESS order holding the awaiting-proof
	// claim to PAID and clears the flag, within the caller's transaction so
	// the settlement postings commit atomically with the status write.
	MarkPaidTx(ctx context.Context, tx pgx.Tx, orderID, paidProofRef, actorUserID string, now time.Time) error

	// RecordRealProfit stores the advisory profit figure computed from
	// execution prices. It never affects ledger postings.
	RecordRealProfit(ctx context.Context, orderID string, realProfit decimal.Decimal, actorUserID string, now time.Time) error
}

// OrderRepository combines all order repository interfaces.
type OrderRepository interface {
	OrderReader
	OrderWriter
}

// OrderRepositoryWithTx extends OrderRepository with transaction capabilities.
type OrderRepositoryWithTx interface {
	OrderRepository
	TransactionManager
}
