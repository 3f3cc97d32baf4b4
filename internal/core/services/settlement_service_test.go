package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/remitwave/settlement_engine/internal/core/domain"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/core/services"
)

type SettlementServiceTestSuite struct {
	suite.Suite
	mockWalletRepo *MockWalletRepository
	mockUserRepo   *MockUserRepository
	service        portssvc.SettlementSvcFacade
}

func (suite *SettlementServiceTestSuite) SetupTest() {
	suite.mockWalletRepo = new(MockWalletRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.service = services.NewSettlementService(suite.mockWalletRepo, suite.mockUserRepo)
}

// profitableOrder yields a theoretical profit of exactly 10.00.
func profitableOrder() (domain.Order, domain.RouteRate) {
	order := domain.Order{
		OrderID:      "ord-1",
		PublicID:     42,
		OperatorID:   "op-1",
		AmountOrigin: decimal.NewFromInt(20000),
		PayoutDest:   decimal.RequireFromString("50.00"),
	}
	// bought = 20000/1000 = 20; spent = 50/5 = 10; profit = 10.00.
	rate := domain.RouteRate{
		OriginBuy: decimal.NewFromInt(1000),
		DestSell:  decimal.NewFromInt(5),
	}
	return order, rate
}

func (suite *SettlementServiceTestSuite) TestTheoreticalProfit_RoundsHalfUp() {
	order := domain.Order{
		AmountOrigin: decimal.NewFromInt(10000),
		PayoutDest:   decimal.RequireFromString("215.50"),
	}
	rate := domain.RouteRate{
		OriginBuy: decimal.NewFromInt(1000),
		DestSell:  decimal.RequireFromString("5.05"),
	}

	// bought = 10; spent = 215.50/5.05 = 42.6732...; profit rounds to -32.67.
	profit := suite.service.TheoreticalProfit(order, rate)
	suite.True(profit.Equal(decimal.RequireFromString("-32.67")), "profit was %s", profit)
}

func (suite *SettlementServiceTestSuite) TestSettle_SponsoredSplit() {
	ctx := context.Background()
	order, rate := profitableOrder()
	sponsorID := "sponsor-1"

	suite.mockUserRepo.On("FindUserByID", ctx, "op-1").Return(&domain.User{UserID: "op-1", SponsorUserID: &sponsorID}, nil).Once()

	var entries []domain.LedgerEntry
	suite.mockWalletRepo.On("PostEntryTx", ctx, nil, mock.AnythingOfType("domain.LedgerEntry"), true).
		Run(func(args mock.Arguments) {
			entries = append(entries, args.Get(2).(domain.LedgerEntry))
		}).Return(nil).Twice()

	profit, err := suite.service.SettleOrderTx(ctx, nil, order, rate)

	suite.Require().NoError(err)
	suite.True(profit.Equal(decimal.RequireFromString("10.00")), "profit was %s", profit)
	suite.Require().Len(entries, 2)

	sponsor := entries[0]
	suite.Equal(domain.EntrySponsorCommission, sponsor.EntryType)
	suite.Equal(sponsorID, sponsor.UserID)
	suite.True(sponsor.Amount.Equal(decimal.RequireFromString("1.00")), "sponsor amount was %s", sponsor.Amount)
	suite.Require().NotNil(sponsor.RefOrderID)
	suite.Equal("ord-1", *sponsor.RefOrderID)
	suite.Equal("sponsor commission for order #42", sponsor.Memo)

	operator := entries[1]
	suite.Equal(domain.EntryOrderProfit, operator.EntryType)
	suite.Equal("op-1", operator.UserID)
	suite.True(operator.Amount.Equal(decimal.RequireFromString("4.50")), "operator amount was %s", operator.Amount)
	suite.Require().NotNil(operator.RefOrderID)
	suite.Equal("ord-1", *operator.RefOrderID)
	suite.Equal("profit share for order #42", operator.Memo)
}

func (suite *SettlementServiceTestSuite) TestSettle_SoloOperatorTakesHalf() {
	ctx := context.Background()
	order, rate := profitableOrder()

	suite.mockUserRepo.On("FindUserByID", ctx, "op-1").Return(&domain.User{UserID: "op-1"}, nil).Once()

	var entry domain.LedgerEntry
	suite.mockWalletRepo.On("PostEntryTx", ctx, nil, mock.AnythingOfType("domain.LedgerEntry"), true).
		Run(func(args mock.Arguments) {
			entry = args.Get(2).(domain.LedgerEntry)
		}).Return(nil).Once()

	profit, err := suite.service.SettleOrderTx(ctx, nil, order, rate)

	suite.Require().NoError(err)
	suite.True(profit.Equal(decimal.RequireFromString("10.00")))
	suite.Equal(domain.EntryOrderProfit, entry.EntryType)
	suite.True(entry.Amount.Equal(decimal.RequireFromString("5.00")), "operator amount was %s", entry.Amount)
	suite.mockWalletRepo.AssertNumberOfCalls(suite.T(), "PostEntryTx", 1)
}

func (suite *SettlementServiceTestSuite) TestSettle_NonPositiveProfitPostsNothing() {
	ctx := context.Background()
	order := domain.Order{
		OrderID:      "ord-2",
		OperatorID:   "op-1",
		AmountOrigin: decimal.NewFromInt(10000),
		PayoutDest:   decimal.RequireFromString("60.00"),
	}
	// bought = 10; spent = 12; profit = -2.00.
	rate := domain.RouteRate{
		OriginBuy: decimal.NewFromInt(1000),
		DestSell:  decimal.NewFromInt(5),
	}

	profit, err := suite.service.SettleOrderTx(ctx, nil, order, rate)

	suite.Require().NoError(err)
	suite.True(profit.Equal(decimal.RequireFromString("-2.00")), "profit was %s", profit)
	suite.mockWalletRepo.AssertNotCalled(suite.T(), "PostEntryTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "FindUserByID", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestSettle_SponsorPostingFailureAbortsOperatorPosting() {
	ctx := context.Background()
	order, rate := profitableOrder()
	sponsorID := "sponsor-1"

	suite.mockUserRepo.On("FindUserByID", ctx, "op-1").Return(&domain.User{UserID: "op-1", SponsorUserID: &sponsorID}, nil).Once()
	suite.mockWalletRepo.On("PostEntryTx", ctx, nil, mock.MatchedBy(func(e domain.LedgerEntry) bool {
		return e.EntryType == domain.EntrySponsorCommission
	}), true).Return(context.DeadlineExceeded).Once()

	_, err := suite.service.SettleOrderTx(ctx, nil, order, rate)

	suite.Require().Error(err)
	suite.mockWalletRepo.AssertNumberOfCalls(suite.T(), "PostEntryTx", 1)
}

func (suite *SettlementServiceTestSuite) TestRealProfit_UsesExecutionPrices() {
	order := domain.Order{
		AmountOrigin: decimal.NewFromInt(20000),
		PayoutDest:   decimal.RequireFromString("50.00"),
	}

	// bought = 20000/1010 = 19.8019...; spent = 50/5.05 = 9.9009...; 9.90.
	profit := suite.service.RealProfit(order, decimal.NewFromInt(1010), decimal.RequireFromString("5.05"))
	suite.True(profit.Equal(decimal.RequireFromString("9.90")), "profit was %s", profit)
}

func TestSettlementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementServiceTestSuite))
}
