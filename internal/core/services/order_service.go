package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/dto"
	"github.com/remitwave/settlement_engine/internal/middleware"
	"github.com/remitwave/settlement_engine/internal/utils/accounting"
)

// minCancelReasonLen is the minimum length of a cancellation reason.
const minCancelReasonLen = 5

// orderService implements the order state machine.
type orderService struct {
	orderRepo  portsrepo.OrderRepositoryWithTx
	rateRepo   portsrepo.RateVersionReader
	settlement portssvc.SettlementSvcFacade
	events     portssvc.OrderEventPublisher // optional, nil disables publishing
}

// NewOrderService creates a new order service.
func NewOrderService(orderRepo portsrepo.OrderRepositoryWithTx, rateRepo portsrepo.RateVersionReader, settlement portssvc.SettlementSvcFacade, events portssvc.OrderEventPublisher) portssvc.OrderSvcFacade {
	return &orderService{
		orderRepo:  orderRepo,
		rateRepo:   rateRepo,
		settlement: settlement,
		events:     events,
	}
}

var _ portssvc.OrderSvcFacade = (*orderService)(nil)

// CreateOrder snapshots the active route rate and inserts the order. Creation
// auto-advances to ORIGIN_VERIFYING within the same insert, so no observer
// ever sees an order that is created but not yet entering review.
func (s *orderService) CreateOrder(ctx context.Context, req dto.CreateOrderRequest, operatorID string) (*domain.Order, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: order amount must be positive", apperrors.ErrValidation)
	}
	if req.OriginCountry == req.DestCountry {
		return nil, fmt.Errorf("%w: origin and destination countries cannot be the same", apperrors.ErrValidation)
	}
	if strings.TrimSpace(req.Beneficiary) == "" {
		return nil, fmt.Errorf("%w: beneficiary is required", apperrors.ErrValidation)
	}

	version, err := s.rateRepo.FindActiveVersion(ctx)
	if err != nil {
		return nil, err
	}
	route, err := s.rateRepo.FindRouteRate(ctx, version.VersionID, req.OriginCountry, req.DestCountry)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &domain.Order{
		OrderID:        uuid.NewString(),
		OperatorID:     operatorID,
		OriginCountry:  req.OriginCountry,
		DestCountry:    req.DestCountry,
		AmountOrigin:   req.Amount,
		RateVersionID:  version.VersionID,
		CommissionPct:  route.CommissionPct,
		ClientRate:     route.ClientRate,
		PayoutDest:     accounting.RoundSettlement(req.Amount.Mul(route.ClientRate)),
		Beneficiary:    req.Beneficiary,
		OriginProofRef: req.OriginProofRef,
		Status:         domain.StatusOriginVerifying,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     operatorID,
			LastUpdatedAt: now,
			LastUpdatedBy: operatorID,
		},
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.publish(ctx, domain.OrderEvent{
		EventType:  domain.EventOrderCreated,
		OrderID:    order.OrderID,
		PublicID:   order.PublicID,
		OperatorID: order.OperatorID,
		Status:     order.Status,
		OccurredAt: now,
	})
	return order, nil
}

// GetOrder retrieves an order by internal id.
func (s *orderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orderRepo.FindOrderByID(ctx, orderID)
}

// GetOrderByPublicID retrieves an order by its public sequential number.
func (s *orderService) GetOrderByPublicID(ctx context.Context, publicID int64) (*domain.Order, error) {
	return s.orderRepo.FindOrderByPublicID(ctx, publicID)
}

// ListOrdersByOperator retrieves an operator's orders, newest first.
func (s *orderService) ListOrdersByOperator(ctx context.Context, operatorID string, limit int) ([]domain.Order, error) {
	return s.orderRepo.ListOrdersByOperator(ctx, operatorID, limit)
}

// AdvanceStatus moves an order along the review edges of the transition
// table. PAID is reached only through MarkPaid, CANCELLED only through
// CancelOrder.
func (s *orderService) AdvanceStatus(ctx context.Context, orderID string, target domain.OrderStatus, actorUserID string) error {
	switch target {
	case domain.StatusOriginConfirmed, domain.StatusInProgress:
	default:
		return fmt.Errorf("%w: status %s cannot be reached through advance", apperrors.ErrInvalidTransition, target)
	}

	allowedFrom := domain.AllowedPredecessors(target)
	err := s.orderRepo.UpdateStatus(ctx, orderID, allowedFrom, target, actorUserID, time.Now())
	if err != nil {
		return s.diagnoseTransitionFailure(ctx, err, orderID, target)
	}

	s.publishStatusChange(ctx, orderID, target)
	return nil
}

// ClaimAwaitingProof takes the exclusive right to close an order. The claim
// is the admission-control gate that stops two closers from racing to settle
// the same order.
func (s *orderService) ClaimAwaitingProof(ctx context.Context, orderID, actorUserID string) error {
	err := s.orderRepo.ClaimAwaitingProof(ctx, orderID, actorUserID, time.Now())
	if err != nil {
		if errors.Is(err, apperrors.ErrConcurrencyConflict) {
			order, findErr := s.orderRepo.FindOrderByID(ctx, orderID)
			if findErr != nil {
				return findErr
			}
			if order.Status != domain.StatusInProgress {
				return fmt.Errorf("%w: cannot claim order in status %s", apperrors.ErrInvalidTransition, order.Status)
			}
			// Order is in progress, so the claim must already be held.
			return fmt.Errorf("%w: awaiting-proof claim already held", apperrors.ErrConcurrencyConflict)
		}
		return err
	}
	return nil
}

// MarkPaid closes a claimed order: the PAID status write and the settlement
// postings commit in one transaction, so a crash either leaves the order
// IN_PROGRESS and unsettled or PAID and settled, never in between.
func (s *orderService) MarkPaid(ctx context.Context, orderID, paidProofRef, actorUserID string) (*domain.Order, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if strings.TrimSpace(paidProofRef) == "" {
		return nil, fmt.Errorf("%w: payment proof reference is required", apperrors.ErrValidation)
	}

	order, err := s.orderRepo.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	route, err := s.rateRepo.FindRouteRate(ctx, order.RateVersionID, order.OriginCountry, order.DestCountry)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshotted route rate for order %s: %w", orderID, err)
	}

	now := time.Now()
	tx, err := s.orderRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = s.orderRepo.Rollback(ctx, tx)
	}()

	if err := s.orderRepo.MarkPaidTx(ctx, tx, orderID, paidProofRef, actorUserID, now); err != nil {
		if errors.Is(err, apperrors.ErrConcurrencyConflict) {
			return nil, s.diagnoseMarkPaidFailure(ctx, orderID)
		}
		return nil, err
	}

	profit, err := s.settlement.SettleOrderTx(ctx, tx, *order, *route)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	order.Status = domain.StatusPaid
	order.AwaitingPaidProof = false
	order.PaidProofRef = paidProofRef
	order.PaidAt = &now

	logger.Info("Order marked paid",
		slog.Int64("public_id", order.PublicID),
		slog.String("order_id", orderID),
		slog.String("profit", profit.String()),
	)
	s.publish(ctx, domain.OrderEvent{
		EventType:  domain.EventOrderSettled,
		OrderID:    order.OrderID,
		PublicID:   order.PublicID,
		OperatorID: order.OperatorID,
		Status:     domain.StatusPaid,
		Profit:     &profit,
		OccurredAt: now,
	})
	return order, nil
}

// CancelOrder cancels a non-terminal order. Cancellation is final and never
// reverses ledger entries already posted.
func (s *orderService) CancelOrder(ctx context.Context, orderID, reason, actorUserID string) error {
	if len(strings.TrimSpace(reason)) < minCancelReasonLen {
		return fmt.Errorf("%w: cancellation reason must be at least %d characters", apperrors.ErrValidation, minCancelReasonLen)
	}

	err := s.orderRepo.CancelOrder(ctx, orderID, reason, actorUserID, time.Now())
	if err != nil {
		return s.diagnoseTransitionFailure(ctx, err, orderID, domain.StatusCancelled)
	}

	s.publishStatusChange(ctx, orderID, domain.StatusCancelled)
	return nil
}

// RecordExecutionPrices stores the advisory real profit computed from
// after-the-fact market prices.
func (s *orderService) RecordExecutionPrices(ctx context.Context, orderID string, execBuy, execSell decimal.Decimal, actorUserID string) (decimal.Decimal, error) {
	if !execBuy.IsPositive() || !execSell.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: execution prices must be positive", apperrors.ErrValidation)
	}
	order, err := s.orderRepo.FindOrderByID(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	if order.Status != domain.StatusPaid {
		return decimal.Zero, fmt.Errorf("%w: execution prices can only be recorded on a paid order (status %s)", apperrors.ErrInvalidTransition, order.Status)
	}

	realProfit := s.settlement.RealProfit(*order, execBuy, execSell)
	if err := s.orderRepo.RecordRealProfit(ctx, orderID, realProfit, actorUserID, time.Now()); err != nil {
		return decimal.Zero, err
	}
	return realProfit, nil
}

// diagnoseTransitionFailure turns a zero-rows conditional update into the
// precise error: missing order, illegal edge, or a lost race.
func (s *orderService) diagnoseTransitionFailure(ctx context.Context, cause error, orderID string, target domain.OrderStatus) error {
	if !errors.Is(cause, apperrors.ErrConcurrencyConflict) {
		return cause
	}
	order, err := s.orderRepo.FindOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, order.Status, target)
	}
	return cause
}

func (s *orderService) diagnoseMarkPaidFailure(ctx context.Context, orderID string) error {
	order, err := s.orderRepo.FindOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != domain.StatusInProgress {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, order.Status, domain.StatusPaid)
	}
	if !order.AwaitingPaidProof {
		return fmt.Errorf("%w: awaiting-proof claim not held for order %s", apperrors.ErrInvalidTransition, orderID)
	}
	return fmt.Errorf("%w: concurrent close attempt on order %s", apperrors.ErrConcurrencyConflict, orderID)
}

func (s *orderService) publishStatusChange(ctx context.Context, orderID string, status domain.OrderStatus) {
	if s.events == nil {
		return
	}
	order, err := s.orderRepo.FindOrderByID(ctx, orderID)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to load order for event publishing", slog.String("order_id", orderID), slog.String("error", err.Error()))
		return
	}
	s.publish(ctx, domain.OrderEvent{
		EventType:  domain.EventOrderStatusChanged,
		OrderID:    order.OrderID,
		PublicID:   order.PublicID,
		OperatorID: order.OperatorID,
		Status:     status,
		OccurredAt: time.Now(),
	})
}

// publish emits an event best effort; failures are logged, never propagated.
func (s *orderService) publish(ctx context.Context, event domain.OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to publish order event",
			slog.String("order_id", event.OrderID),
			slog.String("event_type", string(event.EventType)),
			slog.String("error", err.Error()),
		)
	}
}
