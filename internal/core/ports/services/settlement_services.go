package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/core/domain"
)

// SettlementSvcFacade computes order profit from the snapshotted route rate
// and splits it between operator and sponsor via the wallet ledger.
type SettlementSvcFacade interface {
	// SettleOrderTx posts the profit split inside the caller's transaction
	// (the one carrying the PAID status write) and returns the theoretical
	// profit. Both postings are idempotent on the order id, so a redelivered
	// mark-paid event never double-pays.
	SettleOrderTx(ctx context.Context, tx pgx.Tx, order domain.Order, rate domain.RouteRate) (decimal.Decimal, error)

	// TheoreticalProfit replays the snapshotted rate:
	// amount/buy - payout/sell, rounded half-up to settlement precision.
	TheoreticalProfit(order domain.Order, rate domain.RouteRate) decimal.Decimal

	// RealProfit computes the advisory figure from execution-time prices.
	RealProfit(order domain.Order, execBuy, execSell decimal.Decimal) decimal.Decimal
}
