package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
)

// orderCounterName is the dedicated counter row that hands out public
// sequential order numbers. The counter survives concurrent inserts and
// deletions; public ids are never derived from row counts.
const orderCounterName = "order_public_id"

// PgxOrderRepository persists transfer orders.
type PgxOrderRepository struct {
	BaseRepository
}

// NewOrderRepository creates a new repository for order data.
func NewOrderRepository(pool *pgxpool.Pool) portsrepo.OrderRepositoryWithTx {
	return &PgxOrderRepository{BaseRepository{Pool: pool}}
}

const orderColumns = `order_id, public_id, operator_id, origin_country, dest_country, amount_origin, rate_version_id, commission_pct, client_rate, payout_dest, beneficiary, origin_proof_ref, paid_proof_ref, status, awaiting_paid_proof, cancel_reason, real_profit, verified_at, paid_at, cancelled_at, created_at, created_by, last_updated_at, last_updated_by`

// CreateOrder assigns the next public id from the dedicated counter and
// inserts the order, both inside one transaction. The row lock taken by the
// counter update serializes concurrent creations.
func (r *PgxOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	counterQuery := `
		UPDATE counters
		SET value = value + 1
		WHERE name = $1
		RETURNING value;
	`
	if err := tx.QueryRow(ctx, counterQuery, orderCounterName).Scan(&order.PublicID); err != nil {
		return fmt.Errorf("failed to advance order counter: %w", err)
	}

	insertQuery := `
		INSERT INTO orders (order_id, public_id, operator_id, origin_country, dest_country, amount_origin, rate_version_id, commission_pct, client_rate, payout_dest, beneficiary, origin_proof_ref, status, awaiting_paid_proof, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err = tx.Exec(ctx, insertQuery,
		order.OrderID,
		order.PublicID,
		order.OperatorID,
		order.OriginCountry,
		order.DestCountry,
		order.AmountOrigin,
		order.RateVersionID,
		order.CommissionPct,
		order.ClientRate,
		order.PayoutDest,
		order.Beneficiary,
		order.OriginProofRef,
		order.Status,
		order.AwaitingPaidProof,
		order.CreatedAt,
		order.CreatedBy,
		order.LastUpdatedAt,
		order.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order %s: %w", order.OrderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order creation %s: %w", order.OrderID, err)
	}
	return nil
}

// UpdateStatus moves an order to target if its current status is in
// allowedFrom. The guard predicate makes concurrent transition attempts
// mutually exclusive: exactly one sees rows_affected = 0.
func (r *PgxOrderRepository) UpdateStatus(ctx context.Context, orderID string, allowedFrom []domain.OrderStatus, target domain.OrderStatus, actorUserID string, now time.Time) error {
	query := `
		UPDATE orders
		SET status = $2,
		    verified_at = CASE WHEN $2 = 'ORIGIN_CONFIRMED' THEN $3 ELSE verified_at END,
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE order_id = $1 AND status = ANY($5);
	`
	cmdTag, err := r.Pool.Exec(ctx, query, orderID, target, now, actorUserID, statusStrings(allowedFrom))
	if err != nil {
		return fmt.Errorf("failed to update status of order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConcurrencyConflict
	}
	return nil
}

// CancelOrder moves a non-terminal order to CANCELLED with a reason.
func (r *PgxOrderRepository) CancelOrder(ctx context.Context, orderID, reason, actorUserID string, now time.Time) error {
	query := `
		UPDATE orders
		SET status = $2, cancel_reason = $3, cancelled_at = $4, last_updated_at = $4, last_updated_by = $5
		WHERE order_id = $1 AND status = ANY($6);
	`
	cmdTag, err := r.Pool.Exec(ctx, query, orderID, domain.StatusCancelled, reason, now, actorUserID, statusStrings(domain.AllowedPredecessors(domain.StatusCancelled)))
	if err != nil {
		return fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConcurrencyConflict
	}
	return nil
}

// ClaimAwaitingProof sets the awaiting-paid-proof flag. The flag acts as the
// admission-control gate for closing: only one claim can be held at a time.
func (r *PgxOrderRepository) ClaimAwaitingProof(ctx context.Context, orderID, actorUserID string, now time.Time) error {
	query := `
		UPDATE orders
		SET awaiting_paid_proof = TRUE, last_updated_at = $2, last_updated_by = $3
		WHERE order_id = $1 AND status = $4 AND awaiting_paid_proof = FALSE;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, orderID, now, actorUserID, domain.StatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to claim awaiting-proof on order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConcurrencyConflict
	}
	return nil
}

// MarkPaidTx transitions a claimed IN_PROGRESS order to PAID and clears the
// claim, inside the caller's transaction so the settlement postings commit
// atomically with the status write.
func (r *PgxOrderRepository) MarkPaidTx(ctx context.Context, tx pgx.Tx, orderID, paidProofRef, actorUserID string, now time.Time) error {
	query := `
		UPDATE orders
		SET status = $2, awaiting_paid_proof = FALSE, paid_proof_ref = $3, paid_at = $4, last_updated_at = $4, last_updated_by = $5
		WHERE order_id = $1 AND status = $6 AND awaiting_paid_proof = TRUE;
	`
	cmdTag, err := tx.Exec(ctx, query, orderID, domain.StatusPaid, paidProofRef, now, actorUserID, domain.StatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to mark order %s paid: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConcurrencyConflict
	}
	return nil
}

// RecordRealProfit stores the advisory profit figure from execution prices.
func (r *PgxOrderRepository) RecordRealProfit(ctx context.Context, orderID string, realProfit decimal.Decimal, actorUserID string, now time.Time) error {
	query := `
		UPDATE orders
		SET real_profit = $2, last_updated_at = $3, last_updated_by = $4
		WHERE order_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, orderID, realProfit, now, actorUserID)
	if err != nil {
		return fmt.Errorf("failed to record real profit on order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindOrderByID retrieves an order by its internal identifier.
func (r *PgxOrderRepository) FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1;`
	order, err := scanOrderRow(r.Pool.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID %s: %w", orderID, err)
	}
	return order, nil
}

// FindOrderByPublicID retrieves an order by its public sequential number.
func (r *PgxOrderRepository) FindOrderByPublicID(ctx context.Context, publicID int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE public_id = $1;`
	order, err := scanOrderRow(r.Pool.QueryRow(ctx, query, publicID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order by public id %d: %w", publicID, err)
	}
	return order, nil
}

// ListOrdersByOperator retrieves orders owned by one operator, newest first.
func (r *PgxOrderRepository) ListOrdersByOperator(ctx context.Context, operatorID string, limit int) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE operator_id = $1
		ORDER BY public_id DESC
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, operatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders for operator %s: %w", operatorID, err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row for operator %s: %w", operatorID, err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows for operator %s: %w", operatorID, err)
	}
	return orders, nil
}

func scanOrderRow(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	var paidProofRef, cancelReason sql.NullString
	var realProfit decimal.NullDecimal
	err := row.Scan(
		&order.OrderID,
		&order.PublicID,
		&order.OperatorID,
		&order.OriginCountry,
		&order.DestCountry,
		&order.AmountOrigin,
		&order.RateVersionID,
		&order.CommissionPct,
		&order.ClientRate,
		&order.PayoutDest,
		&order.Beneficiary,
		&order.OriginProofRef,
		&paidProofRef,
		&order.Status,
		&order.AwaitingPaidProof,
		&cancelReason,
		&realProfit,
		&order.VerifiedAt,
		&order.PaidAt,
		&order.CancelledAt,
		&order.CreatedAt,
		&order.CreatedBy,
		&order.LastUpdatedAt,
		&order.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if paidProofRef.Valid {
		order.PaidProofRef = paidProofRef.String
	}
	if cancelReason.Valid {
		order.CancelReason = cancelReason.String
	}
	if realProfit.Valid {
		order.RealProfit = &realProfit.Decimal
	}
	return &order, nil
}

func statusStrings(statuses []domain.OrderStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
