package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/core/services"
	"github.com/remitwave/settlement_engine/internal/dto"
)

type UserServiceTestSuite struct {
	suite.Suite
	mockUserRepo *MockUserRepository
	service      portssvc.UserSvcFacade
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	suite.service = services.NewUserService(suite.mockUserRepo)
}

func (suite *UserServiceTestSuite) TestCreateUser_Success() {
	ctx := context.Background()
	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).Return(nil).Once()

	user, err := suite.service.CreateUser(ctx, dto.CreateUserRequest{Name: "Ana", Role: "OPERATOR"}, "admin-1")

	suite.Require().NoError(err)
	suite.Equal(domain.RoleOperator, user.Role)
	suite.True(user.IsActive)
	suite.Nil(user.SponsorUserID)
	suite.NotEmpty(user.UserID)
}

func (suite *UserServiceTestSuite) TestCreateUser_SponsorMustExist() {
	ctx := context.Background()
	sponsorID := "missing-sponsor"
	suite.mockUserRepo.On("FindUserByID", ctx, sponsorID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.CreateUser(ctx, dto.CreateUserRequest{Name: "Ana", Role: "OPERATOR", SponsorUserID: &sponsorID}, "admin-1")

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestCreateUser_WithSponsor() {
	ctx := context.Background()
	sponsorID := "sponsor-1"
	suite.mockUserRepo.On("FindUserByID", ctx, sponsorID).Return(&domain.User{UserID: sponsorID}, nil).Once()

	var saved domain.User
	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.User)
		}).Return(nil).Once()

	user, err := suite.service.CreateUser(ctx, dto.CreateUserRequest{Name: "Ana", Role: "OPERATOR", SponsorUserID: &sponsorID}, "admin-1")

	suite.Require().NoError(err)
	suite.Require().NotNil(user.SponsorUserID)
	suite.Equal(sponsorID, *saved.SponsorUserID)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
