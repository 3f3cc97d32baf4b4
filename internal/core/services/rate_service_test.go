package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/core/services"
)

const pipelineCountriesJSON = `[
	{"country":"AR","currencyCode":"ARS","paymentMethods":["MercadoPago","BankTransfer"],"referenceAmount":"1000"},
	{"country":"BR","currencyCode":"BRL","paymentMethods":["Pix"],"referenceAmount":"1000"},
	{"country":"CL","currencyCode":"CLP","paymentMethods":["BancoEstado"],"referenceAmount":"1000"}
]`

type RateServiceTestSuite struct {
	suite.Suite
	mockRateRepo    *MockRateRepository
	mockQuotes      *MockQuoteSource
	mockSettingRepo *MockSettingRepository
	service         portssvc.RateSvcFacade
}

func (suite *RateServiceTestSuite) SetupTest() {
	suite.mockRateRepo = new(MockRateRepository)
	suite.mockQuotes = new(MockQuoteSource)
	suite.mockSettingRepo = new(MockSettingRepository)

	cache := services.NewSettingCache(suite.mockSettingRepo, time.Minute, nil)
	resolver := services.NewCommissionResolver(cache)
	suite.service = services.NewRateService(suite.mockRateRepo, suite.mockQuotes, resolver, cache)
}

// expectMargins configures a flat default margin so route math is predictable.
func (suite *RateServiceTestSuite) expectMargins(defaultMargin string) {
	ctx := mock.Anything
	suite.mockSettingRepo.On("GetJSON", ctx, mock.MatchedBy(func(key string) bool {
		return key != "rate_pipeline_countries" && key != "margin_default"
	})).Return(nil, apperrors.ErrNotFound).Maybe()
	suite.mockSettingRepo.On("GetJSON", ctx, "margin_default").Return(json.RawMessage(`"`+defaultMargin+`"`), nil).Maybe()
}

func (suite *RateServiceTestSuite) expectCountries(doc string) {
	suite.mockSettingRepo.On("GetJSON", mock.Anything, "rate_pipeline_countries").Return(json.RawMessage(doc), nil).Once()
}

func quote(price string, verified bool, method string) *portssvc.Quote {
	return &portssvc.Quote{Price: decimal.RequireFromString(price), IsVerified: verified, MethodUsed: method}
}

func (suite *RateServiceTestSuite) TestGenerate_Success_FullMatrix() {
	ctx := context.Background()
	suite.expectCountries(pipelineCountriesJSON)
	suite.expectMargins("0.02")

	for _, c := range []struct {
		code, method, buy, sell string
	}{
		{"ARS", "MercadoPago", "1000", "1010"},
		{"BRL", "Pix", "5.00", "5.05"},
		{"CLP", "BancoEstado", "900", "910"},
	} {
		suite.mockQuotes.On("FetchPrice", ctx, c.code, domain.QuoteBuy, c.method, mock.Anything).Return(quote(c.buy, true, c.method), nil).Once()
		suite.mockQuotes.On("FetchPrice", ctx, c.code, domain.QuoteSell, c.method, mock.Anything).Return(quote(c.sell, true, c.method), nil).Once()
	}

	var captured []domain.RouteRate
	suite.mockRateRepo.On("ActivateNewVersion", ctx, mock.AnythingOfType("domain.RateVersion"), mock.AnythingOfType("[]domain.CountryPrice"), mock.AnythingOfType("[]domain.RouteRate"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			captured = args.Get(3).([]domain.RouteRate)
		}).Return(nil).Once()

	result, err := suite.service.Generate(ctx, domain.RateKindScheduled, "hourly refresh", "admin-1")

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.Len(result.PricedCountries, 3)
	suite.Empty(result.FailedCountries)
	// 3 countries give a 3x2 directed route matrix.
	suite.Equal(6, result.RouteCount)
	suite.Require().Len(captured, 6)

	// AR -> BR: base = sell[BR]/buy[AR] = 5.05/1000; client = base * 0.98.
	var arbr *domain.RouteRate
	for i := range captured {
		if captured[i].OriginCountry == "AR" && captured[i].DestCountry == "BR" {
			arbr = &captured[i]
		}
	}
	suite.Require().NotNil(arbr)
	suite.True(arbr.BaseRate.Equal(decimal.RequireFromString("0.00505")), "base rate was %s", arbr.BaseRate)
	suite.True(arbr.ClientRate.Equal(decimal.RequireFromString("0.004949")), "client rate was %s", arbr.ClientRate)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestGenerate_PaymentMethodFallback() {
	ctx := context.Background()
	suite.expectCountries(pipelineCountriesJSON)
	suite.expectMargins("0.02")

	// AR's first method is down; the second succeeds.
	suite.mockQuotes.On("FetchPrice", ctx, "ARS", domain.QuoteBuy, "MercadoPago", mock.Anything).Return(nil, apperrors.ErrQuoteUnavailable).Once()
	suite.mockQuotes.On("FetchPrice", ctx, "ARS", domain.QuoteBuy, "BankTransfer", mock.Anything).Return(quote("1000", true, "BankTransfer"), nil).Once()
	suite.mockQuotes.On("FetchPrice", ctx, "ARS", domain.QuoteSell, "MercadoPago", mock.Anything).Return(quote("1010", true, "MercadoPago"), nil).Once()
	suite.mockQuotes.On("FetchPrice", ctx, "BRL", mock.Anything, "Pix", mock.Anything).Return(quote("5.00", true, "Pix"), nil).Twice()
	suite.mockQuotes.On("FetchPrice", ctx, "CLP", mock.Anything, "BancoEstado", mock.Anything).Return(quote("900", true, "BancoEstado"), nil).Twice()

	var prices []domain.CountryPrice
	suite.mockRateRepo.On("ActivateNewVersion", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			prices = args.Get(2).([]domain.CountryPrice)
		}).Return(nil).Once()

	result, err := suite.service.Generate(ctx, domain.RateKindManual, "operator request", "admin-1")

	suite.Require().NoError(err)
	suite.Len(result.PricedCountries, 3)
	var ar *domain.CountryPrice
	for i := range prices {
		if prices[i].Country == "AR" {
			ar = &prices[i]
		}
	}
	suite.Require().NotNil(ar)
	suite.Equal("BankTransfer", ar.BuyMethod)
	suite.Equal("MercadoPago", ar.SellMethod)
}

func (suite *RateServiceTestSuite) TestGenerate_CountryExcludedAfterExhaustingMethods() {
	ctx := context.Background()
	suite.expectCountries(pipelineCountriesJSON)
	suite.expectMargins("0.02")

	suite.mockQuotes.On("FetchPrice", ctx, "ARS", domain.QuoteBuy, mock.Anything, mock.Anything).Return(nil, apperrors.ErrQuoteUnavailable).Twice()
	suite.mockQuotes.On("FetchPrice", ctx, "BRL", mock.Anything, "Pix", mock.Anything).Return(quote("5.00", true, "Pix"), nil).Twice()
	suite.mockQuotes.On("FetchPrice", ctx, "CLP", mock.Anything, "BancoEstado", mock.Anything).Return(quote("900", true, "BancoEstado"), nil).Twice()

	suite.mockRateRepo.On("ActivateNewVersion", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	result, err := suite.service.Generate(ctx, domain.RateKindScheduled, "hourly refresh", "admin-1")

	suite.Require().NoError(err)
	suite.Equal([]string{"AR"}, result.FailedCountries)
	suite.Len(result.PricedCountries, 2)
	suite.Equal(2, result.RouteCount)
}

func (suite *RateServiceTestSuite) TestGenerate_InsufficientCoverageAborts() {
	ctx := context.Background()
	suite.expectCountries(pipelineCountriesJSON)
	suite.mockSettingRepo.On("GetJSON", mock.Anything, "rate_min_priced_countries").Return(nil, apperrors.ErrNotFound).Maybe()

	// Only BR prices; AR and CL fail every method.
	suite.mockQuotes.On("FetchPrice", ctx, "ARS", mock.Anything, mock.Anything, mock.Anything).Return(nil, apperrors.ErrQuoteUnavailable)
	suite.mockQuotes.On("FetchPrice", ctx, "CLP", mock.Anything, mock.Anything, mock.Anything).Return(nil, apperrors.ErrQuoteUnavailable)
	suite.mockQuotes.On("FetchPrice", ctx, "BRL", mock.Anything, "Pix", mock.Anything).Return(quote("5.00", true, "Pix"), nil).Twice()

	result, err := suite.service.Generate(ctx, domain.RateKindScheduled, "hourly refresh", "admin-1")

	suite.Require().ErrorIs(err, apperrors.ErrInsufficientCoverage)
	suite.Nil(result)
	// The previous version must stay active: no write at all.
	suite.mockRateRepo.AssertNotCalled(suite.T(), "ActivateNewVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateServiceTestSuite) TestGenerate_CoverageFloorCannotBeLowered() {
	ctx := context.Background()
	suite.expectCountries(pipelineCountriesJSON)
	suite.mockSettingRepo.On("GetJSON", mock.Anything, "rate_min_priced_countries").Return(json.RawMessage(`1`), nil).Once()

	// Only BR prices. A single country yields no routes, so the setting must
	// not drop the floor below two.
	suite.mockQuotes.On("FetchPrice", ctx, "ARS", mock.Anything, mock.Anything, mock.Anything).Return(nil, apperrors.ErrQuoteUnavailable)
	suite.mockQuotes.On("FetchPrice", ctx, "CLP", mock.Anything, mock.Anything, mock.Anything).Return(nil, apperrors.ErrQuoteUnavailable)
	suite.mockQuotes.On("FetchPrice", ctx, "BRL", mock.Anything, "Pix", mock.Anything).Return(quote("5.00", true, "Pix"), nil).Twice()

	result, err := suite.service.Generate(ctx, domain.RateKindScheduled, "hourly refresh", "admin-1")

	suite.Require().ErrorIs(err, apperrors.ErrInsufficientCoverage)
	suite.Nil(result)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "ActivateNewVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateServiceTestSuite) TestGenerate_CoverageFloorOverride() {
	ctx := context.Background()
	suite.expectCountries(pipelineCountriesJSON)
	suite.mockSettingRepo.On("GetJSON", mock.Anything, "rate_min_priced_countries").Return(json.RawMessage(`3`), nil).Once()

	// AR fails, so only two of three countries price; the raised floor rejects it.
	suite.mockQuotes.On("FetchPrice", ctx, "ARS", domain.QuoteBuy, mock.Anything, mock.Anything).Return(nil, apperrors.ErrQuoteUnavailable).Twice()
	suite.mockQuotes.On("FetchPrice", ctx, "BRL", mock.Anything, "Pix", mock.Anything).Return(quote("5.00", true, "Pix"), nil).Twice()
	suite.mockQuotes.On("FetchPrice", ctx, "CLP", mock.Anything, "BancoEstado", mock.Anything).Return(quote("900", true, "BancoEstado"), nil).Twice()

	_, err := suite.service.Generate(ctx, domain.RateKindScheduled, "hourly refresh", "admin-1")

	suite.Require().ErrorIs(err, apperrors.ErrInsufficientCoverage)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "ActivateNewVersion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateServiceTestSuite) TestGenerate_NonTransientQuoteErrorPropagates() {
	ctx := context.Background()
	suite.expectCountries(pipelineCountriesJSON)

	boom := context.DeadlineExceeded
	suite.mockQuotes.On("FetchPrice", ctx, "ARS", domain.QuoteBuy, "MercadoPago", mock.Anything).Return(nil, boom).Once()

	result, err := suite.service.Generate(ctx, domain.RateKindScheduled, "hourly refresh", "admin-1")

	suite.Require().ErrorIs(err, context.DeadlineExceeded)
	suite.Nil(result)
}

func (suite *RateServiceTestSuite) TestGenerate_UnverifiedQuoteReported() {
	ctx := context.Background()
	suite.expectCountries(`[
		{"country":"AR","currencyCode":"ARS","paymentMethods":["MercadoPago"],"referenceAmount":"1000"},
		{"country":"BR","currencyCode":"BRL","paymentMethods":["Pix"],"referenceAmount":"1000"}
	]`)
	suite.expectMargins("0.02")

	suite.mockQuotes.On("FetchPrice", ctx, "ARS", mock.Anything, "MercadoPago", mock.Anything).Return(quote("1000", false, "MercadoPago"), nil).Twice()
	suite.mockQuotes.On("FetchPrice", ctx, "BRL", mock.Anything, "Pix", mock.Anything).Return(quote("5.00", true, "Pix"), nil).Twice()

	var prices []domain.CountryPrice
	suite.mockRateRepo.On("ActivateNewVersion", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			prices = args.Get(2).([]domain.CountryPrice)
		}).Return(nil).Once()

	result, err := suite.service.Generate(ctx, domain.RateKindIntraday, "volatility spike", "admin-1")

	suite.Require().NoError(err)
	suite.Equal([]string{"AR"}, result.UnverifiedCountries)
	for _, p := range prices {
		if p.Country == "AR" {
			suite.False(p.IsVerified)
		}
	}
}

func (suite *RateServiceTestSuite) TestGenerate_RejectsEmptyReasonAndUnknownKind() {
	ctx := context.Background()

	_, err := suite.service.Generate(ctx, domain.RateKindScheduled, "", "admin-1")
	suite.Require().ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.Generate(ctx, domain.RateVersionKind("WEEKLY"), "reason", "admin-1")
	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func TestRateServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RateServiceTestSuite))
}
