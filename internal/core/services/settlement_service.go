package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/core/domain"
	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/middleware"
	"github.com/remitwave/settlement_engine/internal/utils/accounting"
)

// Profit split shares. With a sponsor the operator takes 45% and the sponsor
// 10%; without one the operator takes 50%.
var (
	operatorShareWithSponsor = decimal.RequireFromString("0.45")
	sponsorShare             = decimal.RequireFromString("0.10")
	operatorShareSolo        = decimal.RequireFromString("0.50")
)

// settlementService computes profit from the snapshotted route rate and
// splits it between operator and sponsor through the wallet ledger.
type settlementService struct {
	walletRepo portsrepo.WalletRepository
	userRepo   portsrepo.UserRepository
}

// NewSettlementService creates a new settlement service.
func NewSettlementService(walletRepo portsrepo.WalletRepository, userRepo portsrepo.UserRepository) portssvc.SettlementSvcFacade {
	return &settlementService{walletRepo: walletRepo, userRepo: userRepo}
}

var _ portssvc.SettlementSvcFacade = (*settlementService)(nil)

// TheoreticalProfit replays the snapshotted route rate:
// profit = amount_origin/buy_snapshot - payout_dest/sell_snapshot,
// rounded half-up to settlement precision. The snapshot keeps the figure
// reproducible even after the active rate version changes.
func (s *settlementService) TheoreticalProfit(order domain.Order, rate domain.RouteRate) decimal.Decimal {
	bought := order.AmountOrigin.Div(rate.OriginBuy)
	spent := order.PayoutDest.Div(rate.DestSell)
	return accounting.RoundSettlement(bought.Sub(spent))
}

// RealProfit computes the advisory figure from execution-time prices. It is
// recorded for monitoring and never drives fund movement.
func (s *settlementService) RealProfit(order domain.Order, execBuy, execSell decimal.Decimal) decimal.Decimal {
	bought := order.AmountOrigin.Div(execBuy)
	spent := order.PayoutDest.Div(execSell)
	return accounting.RoundSettlement(bought.Sub(spent))
}

// SettleOrderTx posts the profit split inside the caller's transaction.
// Both postings are idempotent on (user, type, order id, amount), so a
// redelivered mark-paid event changes each balance exactly once.
func (s *settlementService) SettleOrderTx(ctx context.Context, tx pgx.Tx, order domain.Order, rate domain.RouteRate) (decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	profit := s.TheoreticalProfit(order, rate)
	if !profit.IsPositive() {
		// Nothing to distribute; the order still closes.
		logger.Warn("Order settled with non-positive theoretical profit",
			slog.String("order_id", order.OrderID),
			slog.String("profit", profit.String()),
		)
		return profit, nil
	}

	operator, err := s.userRepo.FindUserByID(ctx, order.OperatorID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load operator %s for settlement: %w", order.OperatorID, err)
	}

	operatorAmount := accounting.RoundSettlement(profit.Mul(operatorShareSolo))
	if operator.SponsorUserID != nil {
		operatorAmount = accounting.RoundSettlement(profit.Mul(operatorShareWithSponsor))
		sponsorAmount := accounting.RoundSettlement(profit.Mul(sponsorShare))

		sponsorEntry := domain.LedgerEntry{
			EntryID:    uuid.NewString(),
			UserID:     *operator.SponsorUserID,
			Amount:     sponsorAmount,
			EntryType:  domain.EntrySponsorCommission,
			RefOrderID: &order.OrderID,
			Memo:       fmt.Sprintf("sponsor commission for order #%d", order.PublicID),
			CreatedAt:  time.Now(),
			CreatedBy:  order.OperatorID,
		}
		if err := s.walletRepo.PostEntryTx(ctx, tx, sponsorEntry, true); err != nil {
			return decimal.Zero, fmt.Errorf("failed to post sponsor commission for order %s: %w", order.OrderID, err)
		}
	}

	operatorEntry := domain.LedgerEntry{
		EntryID:    uuid.NewString(),
		UserID:     order.OperatorID,
		Amount:     operatorAmount,
		EntryType:  domain.EntryOrderProfit,
		RefOrderID: &order.OrderID,
		Memo:       fmt.Sprintf("profit share for order #%d", order.PublicID),
		CreatedAt:  time.Now(),
		CreatedBy:  order.OperatorID,
	}
	if err := s.walletRepo.PostEntryTx(ctx, tx, operatorEntry, true); err != nil {
		return decimal.Zero, fmt.Errorf("failed to post operator profit for order %s: %w", order.OrderID, err)
	}

	logger.Info("Order settlement posted",
		slog.String("order_id", order.OrderID),
		slog.String("profit", profit.String()),
		slog.String("operator_share", operatorAmount.String()),
		slog.Bool("has_sponsor", operator.SponsorUserID != nil),
	)
	return profit, nil
}
