package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/core/services"
	"github.com/remitwave/settlement_engine/internal/dto"
)

type WalletServiceTestSuite struct {
	suite.Suite
	mockWalletRepo     *MockWalletRepository
	mockWithdrawalRepo *MockWithdrawalRepository
	mockUserRepo       *MockUserRepository
	service            portssvc.WalletSvcFacade
}

func (suite *WalletServiceTestSuite) SetupTest() {
	suite.mockWalletRepo = new(MockWalletRepository)
	suite.mockWithdrawalRepo = new(MockWithdrawalRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.service = services.NewWalletService(suite.mockWalletRepo, suite.mockWithdrawalRepo, suite.mockUserRepo)
}

func (suite *WalletServiceTestSuite) TestGetBalance_MissingWalletIsZero() {
	ctx := context.Background()
	suite.mockWalletRepo.On("FindWalletByUserID", ctx, "u-1").Return(nil, apperrors.ErrNotFound).Once()

	balance, err := suite.service.GetBalance(ctx, "u-1")

	suite.Require().NoError(err)
	suite.True(balance.IsZero())
}

func (suite *WalletServiceTestSuite) TestGetBalance_ReturnsMaterializedBalance() {
	ctx := context.Background()
	suite.mockWalletRepo.On("FindWalletByUserID", ctx, "u-1").Return(&domain.Wallet{UserID: "u-1", Balance: decimal.RequireFromString("123.45")}, nil).Once()

	balance, err := suite.service.GetBalance(ctx, "u-1")

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.RequireFromString("123.45")))
}

func (suite *WalletServiceTestSuite) TestPostAdjustment_Success() {
	ctx := context.Background()
	userID := uuid.NewString()

	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(&domain.User{UserID: userID}, nil).Once()
	suite.mockWalletRepo.On("EnsureWallet", ctx, userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	var entry domain.LedgerEntry
	suite.mockWalletRepo.On("PostEntry", ctx, mock.AnythingOfType("domain.LedgerEntry"), false).
		Run(func(args mock.Arguments) {
			entry = args.Get(1).(domain.LedgerEntry)
		}).Return(nil).Once()

	err := suite.service.PostAdjustment(ctx, userID, decimal.RequireFromString("-25.00"), "correction of duplicate payout", "admin-1")

	suite.Require().NoError(err)
	suite.Equal(domain.EntryAdjustment, entry.EntryType)
	suite.True(entry.Amount.Equal(decimal.RequireFromString("-25.00")))
	suite.Nil(entry.RefOrderID)
	suite.Equal("admin-1", entry.CreatedBy)
	suite.mockWalletRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestPostAdjustment_ValidationFailures() {
	ctx := context.Background()

	err := suite.service.PostAdjustment(ctx, "u-1", decimal.Zero, "memo text", "admin-1")
	suite.Require().ErrorIs(err, apperrors.ErrValidation)

	err = suite.service.PostAdjustment(ctx, "u-1", decimal.NewFromInt(10), "  ", "admin-1")
	suite.Require().ErrorIs(err, apperrors.ErrValidation)

	suite.mockWalletRepo.AssertNotCalled(suite.T(), "PostEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletServiceTestSuite) TestPostAdjustment_OverdraftRefused() {
	ctx := context.Background()
	userID := uuid.NewString()

	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(&domain.User{UserID: userID}, nil).Once()
	suite.mockWalletRepo.On("EnsureWallet", ctx, userID, mock.Anything).Return(nil).Once()
	suite.mockWalletRepo.On("PostEntry", ctx, mock.Anything, false).Return(apperrors.ErrInsufficientFunds).Once()

	err := suite.service.PostAdjustment(ctx, userID, decimal.RequireFromString("-9999"), "drain attempt", "admin-1")

	suite.Require().ErrorIs(err, apperrors.ErrInsufficientFunds)
}

func (suite *WalletServiceTestSuite) TestRequestWithdrawal_PlacesHold() {
	ctx := context.Background()
	userID := uuid.NewString()
	req := dto.RequestWithdrawalRequest{
		Amount:       decimal.RequireFromString("100.00"),
		DestCurrency: "ars",
		DestAmount:   decimal.RequireFromString("99000"),
		DestDetails:  "CBU 2850590940090418135201",
	}

	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(&domain.User{UserID: userID}, nil).Once()
	suite.mockWalletRepo.On("EnsureWallet", ctx, userID, mock.Anything).Return(nil).Once()

	var held domain.Withdrawal
	suite.mockWithdrawalRepo.On("HoldForWithdrawal", ctx, mock.AnythingOfType("domain.Withdrawal")).
		Run(func(args mock.Arguments) {
			held = args.Get(1).(domain.Withdrawal)
		}).Return(nil).Once()

	withdrawal, err := suite.service.RequestWithdrawal(ctx, userID, req)

	suite.Require().NoError(err)
	suite.Equal(domain.WithdrawalRequested, withdrawal.Status)
	suite.Equal("ARS", withdrawal.DestCurrency)
	suite.True(held.Amount.Equal(decimal.RequireFromString("100.00")))
	suite.Equal(userID, held.UserID)
}

func (suite *WalletServiceTestSuite) TestRequestWithdrawal_InsufficientBalance() {
	ctx := context.Background()
	userID := uuid.NewString()

	suite.mockUserRepo.On("FindUserByID", ctx, userID).Return(&domain.User{UserID: userID}, nil).Once()
	suite.mockWalletRepo.On("EnsureWallet", ctx, userID, mock.Anything).Return(nil).Once()
	suite.mockWithdrawalRepo.On("HoldForWithdrawal", ctx, mock.Anything).Return(apperrors.ErrInsufficientFunds).Once()

	_, err := suite.service.RequestWithdrawal(ctx, userID, dto.RequestWithdrawalRequest{
		Amount:       decimal.RequireFromString("100.00"),
		DestCurrency: "ARS",
		DestAmount:   decimal.RequireFromString("99000"),
	})

	suite.Require().ErrorIs(err, apperrors.ErrInsufficientFunds)
}

func (suite *WalletServiceTestSuite) TestRequestWithdrawal_ValidationFailures() {
	ctx := context.Background()

	_, err := suite.service.RequestWithdrawal(ctx, "u-1", dto.RequestWithdrawalRequest{
		Amount: decimal.Zero, DestCurrency: "ARS", DestAmount: decimal.NewFromInt(1),
	})
	suite.Require().ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.RequestWithdrawal(ctx, "u-1", dto.RequestWithdrawalRequest{
		Amount: decimal.NewFromInt(10), DestCurrency: "ARS", DestAmount: decimal.Zero,
	})
	suite.Require().ErrorIs(err, apperrors.ErrValidation)

	suite.mockWithdrawalRepo.AssertNotCalled(suite.T(), "HoldForWithdrawal", mock.Anything, mock.Anything)
}

func (suite *WalletServiceTestSuite) TestRejectWithdrawal_ReleasesHold() {
	ctx := context.Background()
	withdrawalID := uuid.NewString()

	suite.mockWithdrawalRepo.On("RejectAndRelease", ctx, withdrawalID, "dest account mismatch", "admin-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.RejectWithdrawal(ctx, withdrawalID, "dest account mismatch", "admin-1")

	suite.Require().NoError(err)
	suite.mockWithdrawalRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestRejectWithdrawal_ShortReason() {
	ctx := context.Background()

	err := suite.service.RejectWithdrawal(ctx, "w-1", "bad", "admin-1")

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockWithdrawalRepo.AssertNotCalled(suite.T(), "RejectAndRelease", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletServiceTestSuite) TestRejectWithdrawal_AlreadyResolved() {
	ctx := context.Background()
	withdrawalID := uuid.NewString()

	suite.mockWithdrawalRepo.On("RejectAndRelease", ctx, withdrawalID, "dest account mismatch", "admin-1", mock.Anything).Return(apperrors.ErrConcurrencyConflict).Once()
	suite.mockWithdrawalRepo.On("FindWithdrawalByID", ctx, withdrawalID).Return(&domain.Withdrawal{WithdrawalID: withdrawalID, Status: domain.WithdrawalResolved}, nil).Once()

	err := suite.service.RejectWithdrawal(ctx, withdrawalID, "dest account mismatch", "admin-1")

	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *WalletServiceTestSuite) TestResolveWithdrawal_Success() {
	ctx := context.Background()
	withdrawalID := uuid.NewString()

	suite.mockWithdrawalRepo.On("ResolveWithdrawal", ctx, withdrawalID, "payout-proof-9", "admin-1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.ResolveWithdrawal(ctx, withdrawalID, "payout-proof-9", "admin-1")

	suite.Require().NoError(err)
	// Resolution never touches the balance; the hold already moved the funds.
	suite.mockWalletRepo.AssertNotCalled(suite.T(), "PostEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletServiceTestSuite) TestResolveWithdrawal_RequiresProof() {
	ctx := context.Background()

	err := suite.service.ResolveWithdrawal(ctx, "w-1", " ", "admin-1")

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (suite *WalletServiceTestSuite) TestResolveWithdrawal_LostRaceDiagnosed() {
	ctx := context.Background()
	withdrawalID := uuid.NewString()

	suite.mockWithdrawalRepo.On("ResolveWithdrawal", ctx, withdrawalID, "proof", "admin-1", mock.Anything).Return(apperrors.ErrConcurrencyConflict).Once()
	suite.mockWithdrawalRepo.On("FindWithdrawalByID", ctx, withdrawalID).Return(&domain.Withdrawal{WithdrawalID: withdrawalID, Status: domain.WithdrawalRejected}, nil).Once()

	err := suite.service.ResolveWithdrawal(ctx, withdrawalID, "proof", "admin-1")

	suite.Require().ErrorIs(err, apperrors.ErrInvalidTransition)
}

func TestWalletServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WalletServiceTestSuite))
}
