package services_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/remitwave/settlement_engine/internal/core/domain"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
)

// --- Mock OrderRepository ---

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindOrderByPublicID(ctx context.Context, publicID int64) (*domain.Order, error) {
	args := m.Called(ctx, publicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListOrdersByOperator(ctx context.Context, operatorID string, limit int) ([]domain.Order, error) {
	args := m.Called(ctx, operatorID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID string, allowedFrom []domain.OrderStatus, target domain.OrderStatus, actorUserID string, now time.Time) error {
	args := m.Called(ctx, orderID, allowedFrom, target, actorUserID, now)
	return args.Error(0)
}

func (m *MockOrderRepository) CancelOrder(ctx context.Context, orderID, reason, actorUserID string, now time.Time) error {
	args := m.Called(ctx, orderID, reason, actorUserID, now)
	return args.Error(0)
}

func (m *MockOrderRepository) ClaimAwaitingProof(ctx context.Context, orderID, actorUserID string, now time.Time) error {
	args := m.Called(ctx, orderID, actorUserID, now)
	return args.Error(0)
}

func (m *MockOrderRepository) MarkPaidTx(ctx context.Context, tx pgx.Tx, orderID, paidProofRef, actorUserID string, now time.Time) error {
	args := m.Called(ctx, tx, orderID, paidProofRef, actorUserID, now)
	return args.Error(0)
}

func (m *MockOrderRepository) RecordRealProfit(ctx context.Context, orderID string, realProfit decimal.Decimal, actorUserID string, now time.Time) error {
	args := m.Called(ctx, orderID, realProfit, actorUserID, now)
	return args.Error(0)
}

func (m *MockOrderRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockOrderRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockOrderRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock RateVersionRepository ---

type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) FindActiveVersion(ctx context.Context) (*domain.RateVersion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateVersion), args.Error(1)
}

func (m *MockRateRepository) FindVersionByID(ctx context.Context, versionID string) (*domain.RateVersion, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateVersion), args.Error(1)
}

func (m *MockRateRepository) FindRouteRate(ctx context.Context, versionID, originCountry, destCountry string) (*domain.RouteRate, error) {
	args := m.Called(ctx, versionID, originCountry, destCountry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RouteRate), args.Error(1)
}

func (m *MockRateRepository) ListRoutesByVersion(ctx context.Context, versionID string) ([]domain.RouteRate, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RouteRate), args.Error(1)
}

func (m *MockRateRepository) ListCountryPricesByVersion(ctx context.Context, versionID string) ([]domain.CountryPrice, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CountryPrice), args.Error(1)
}

func (m *MockRateRepository) ActivateNewVersion(ctx context.Context, version domain.RateVersion, prices []domain.CountryPrice, routes []domain.RouteRate, now time.Time) error {
	args := m.Called(ctx, version, prices, routes, now)
	return args.Error(0)
}

// --- Mock WalletRepository ---

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) ListEntriesByUserID(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockWalletRepository) EnsureWallet(ctx context.Context, userID string, now time.Time) error {
	args := m.Called(ctx, userID, now)
	return args.Error(0)
}

func (m *MockWalletRepository) PostEntry(ctx context.Context, entry domain.LedgerEntry, idempotent bool) error {
	args := m.Called(ctx, entry, idempotent)
	return args.Error(0)
}

func (m *MockWalletRepository) PostEntryTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry, idempotent bool) error {
	args := m.Called(ctx, tx, entry, idempotent)
	return args.Error(0)
}

func (m *MockWalletRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockWalletRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockWalletRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock WithdrawalRepository ---

type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) FindWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	args := m.Called(ctx, withdrawalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) ListWithdrawalsByUserID(ctx context.Context, userID string, limit int) ([]domain.Withdrawal, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) HoldForWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error {
	args := m.Called(ctx, withdrawal)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) RejectAndRelease(ctx context.Context, withdrawalID, reason, actorUserID string, now time.Time) error {
	args := m.Called(ctx, withdrawalID, reason, actorUserID, now)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) ResolveWithdrawal(ctx context.Context, withdrawalID, proofRef, actorUserID string, now time.Time) error {
	args := m.Called(ctx, withdrawalID, proofRef, actorUserID, now)
	return args.Error(0)
}

// --- Mock UserRepository ---

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

// --- Mock SettingRepository ---

type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) GetJSON(ctx context.Context, key string) (json.RawMessage, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockSettingRepository) SaveJSON(ctx context.Context, key string, value json.RawMessage, actorUserID string, now time.Time) error {
	args := m.Called(ctx, key, value, actorUserID, now)
	return args.Error(0)
}

// --- Mock QuoteSource ---

type MockQuoteSource struct {
	mock.Mock
}

func (m *MockQuoteSource) FetchPrice(ctx context.Context, currencyCode string, side domain.QuoteSide, paymentMethod string, referenceAmount decimal.Decimal) (*portssvc.Quote, error) {
	args := m.Called(ctx, currencyCode, side, paymentMethod, referenceAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.Quote), args.Error(1)
}

// --- Mock OrderEventPublisher ---

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// --- Mock SettlementSvcFacade ---

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) SettleOrderTx(ctx context.Context, tx pgx.Tx, order domain.Order, rate domain.RouteRate) (decimal.Decimal, error) {
	args := m.Called(ctx, tx, order, rate)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockSettlementService) TheoreticalProfit(order domain.Order, rate domain.RouteRate) decimal.Decimal {
	args := m.Called(order, rate)
	return args.Get(0).(decimal.Decimal)
}

func (m *MockSettlementService) RealProfit(order domain.Order, execBuy, execSell decimal.Decimal) decimal.Decimal {
	args := m.Called(order, execBuy, execSell)
	return args.Get(0).(decimal.Decimal)
}
