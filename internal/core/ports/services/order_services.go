package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/core/domain"
	"github.com/remitwave/settlement_engine/internal/dto"
)

// OrderSvcFacade exposes the order state machine to the interaction and
// administrative layers.
type OrderSvcFacade interface {
	// CreateOrder snapshots the active route rate, assigns the next public id
	// and inserts the order. Creation auto-advances to ORIGIN_VERIFYING as
	// part of the same atomic call.
	CreateOrder(ctx context.Context, req dto.CreateOrderRequest, operatorID string) (*domain.Order, error)

	// GetOrder retrieves an order by internal id.
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// GetOrderByPublicID retrieves an order by its public sequential number.
	GetOrderByPublicID(ctx context.Context, publicID int64) (*domain.Order, error)

	// ListOrdersByOperator retrieves an operator's orders, newest first.
	ListOrdersByOperator(ctx context.Context, operatorID string, limit int) ([]domain.Order, error)

	// AdvanceStatus moves an order along a non-terminal edge of the
	// transition table (ORIGIN_VERIFYING -> ORIGIN_CONFIRMED -> IN_PROGRESS).
	AdvanceStatus(ctx context.Context, orderID string, target domain.OrderStatus, actorUserID string) error

	// ClaimAwaitingProof takes the exclusive right to close an IN_PROGRESS
	// order. Only one closer may hold the claim at a time.
	ClaimAwaitingProof(ctx context.Context, orderID, actorUserID string) error

	// MarkPaid transitions a claimed IN_PROGRESS order to PAID and settles it
	// through the wallet ledger in the same transaction. Safe to retry: the
	// settlement postings are idempotent on the order id.
	MarkPaid(ctx context.Context, orderID, paidProofRef, actorUserID string) (*domain.Order, error)

	// CancelOrder cancels a non-terminal order with a mandatory reason.
	// Cancellation never reverses ledger entries already posted.
	CancelOrder(ctx context.Context, orderID, reason, actorUserID string) error

	// RecordExecutionPrices records after-the-fact market prices and returns
	// the advisory real profit. The figure never drives fund movement.
	RecordExecutionPrices(ctx context.Context, orderID string, execBuy, execSell decimal.Decimal, actorUserID string) (decimal.Decimal, error)
}
