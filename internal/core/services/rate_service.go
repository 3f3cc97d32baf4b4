package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/middleware"
)

// Setting keys consumed by the pipeline.
const (
	// settingKeyPipelineCountries holds the []domain.CountryQuoteConfig
	// document describing which countries are priced and how their quotes
	// are fetched.
	settingKeyPipelineCountries = "rate_pipeline_countries"

	// settingKeyMinPricedCountries overrides the default coverage floor.
	settingKeyMinPricedCountries = "rate_min_priced_countries"
)

// minPricedCountries is the coverage floor below which a generation aborts,
// unless overridden through settings.
const minPricedCountries = 2

var one = decimal.NewFromInt(1)

// rateService runs the rate pipeline and serves read-only rate queries.
type rateService struct {
	rateRepo portsrepo.RateVersionRepository
	quotes   portssvc.QuoteSource
	resolver portssvc.CommissionResolverSvc
	settings *SettingCache
}

// NewRateService creates a new rate service.
func NewRateService(rateRepo portsrepo.RateVersionRepository, quotes portssvc.QuoteSource, resolver portssvc.CommissionResolverSvc, settings *SettingCache) portssvc.RateSvcFacade {
	return &rateService{
		rateRepo: rateRepo,
		quotes:   quotes,
		resolver: resolver,
		settings: settings,
	}
}

var _ portssvc.RateSvcFacade = (*rateService)(nil)

// pricedCountry is the read-phase result for one country before the atomic
// write phase.
type pricedCountry struct {
	config domain.CountryQuoteConfig
	buy    portssvc.Quote
	sell   portssvc.Quote
}

// Generate runs one rate generation. Quote fetches and commission lookups are
// read phases performed before the transaction; only the derived writes are
// transactional, so the database transaction stays short.
func (s *rateService) Generate(ctx context.Context, kind domain.RateVersionKind, reason, actorUserID string) (*domain.GenerationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if reason == "" {
		return nil, fmt.Errorf("%w: generation reason is required", apperrors.ErrValidation)
	}
	switch kind {
	case domain.RateKindScheduled, domain.RateKindManual, domain.RateKindIntraday:
	default:
		return nil, fmt.Errorf("%w: unknown rate version kind %q", apperrors.ErrValidation, kind)
	}

	var countries []domain.CountryQuoteConfig
	if err := s.settings.Unmarshal(ctx, settingKeyPipelineCountries, &countries); err != nil {
		return nil, fmt.Errorf("failed to load pipeline country configuration: %w", err)
	}
	if len(countries) == 0 {
		return nil, fmt.Errorf("%w: no countries configured", apperrors.ErrInsufficientCoverage)
	}

	// Read phase: fetch quotes per country with payment-method fallback.
	// A country that exhausts its method list is excluded from this run,
	// reported as failed, and not retried.
	var priced []pricedCountry
	var failed []string
	var unverified []string
	for _, cfg := range countries {
		buy, err := s.fetchWithFallback(ctx, cfg, domain.QuoteBuy)
		if err != nil {
			if !errors.Is(err, apperrors.ErrQuoteUnavailable) {
				return nil, err
			}
			logger.Warn("Country excluded from generation: buy quote failed",
				slog.String("country", cfg.Country), slog.String("error", err.Error()))
			failed = append(failed, cfg.Country)
			continue
		}
		sell, err := s.fetchWithFallback(ctx, cfg, domain.QuoteSell)
		if err != nil {
			if !errors.Is(err, apperrors.ErrQuoteUnavailable) {
				return nil, err
			}
			logger.Warn("Country excluded from generation: sell quote failed",
				slog.String("country", cfg.Country), slog.String("error", err.Error()))
			failed = append(failed, cfg.Country)
			continue
		}
		if !buy.IsVerified || !sell.IsVerified {
			// Operational warning only; the flag propagates to the price row.
			unverified = append(unverified, cfg.Country)
			logger.Warn("Country priced from unverified advertiser", slog.String("country", cfg.Country))
		}
		priced = append(priced, pricedCountry{config: cfg, buy: *buy, sell: *sell})
	}

	// The setting can only raise the coverage floor; two priced countries is
	// the hard minimum for a usable route matrix.
	minPriced := minPricedCountries
	if n, err := s.settings.GetInt(ctx, settingKeyMinPricedCountries); err == nil && n > minPricedCountries {
		minPriced = n
	}
	if len(priced) < minPriced {
		return nil, fmt.Errorf("%w: %d of %d countries priced", apperrors.ErrInsufficientCoverage, len(priced), len(countries))
	}

	// Commission lookups are also part of the read phase.
	now := time.Now()
	version := domain.RateVersion{
		VersionID:     uuid.NewString(),
		Kind:          kind,
		Reason:        reason,
		CreatedAt:     now,
		CreatedBy:     actorUserID,
		EffectiveFrom: now,
		IsActive:      true,
	}

	prices := make([]domain.CountryPrice, 0, len(priced))
	for _, pc := range priced {
		prices = append(prices, domain.CountryPrice{
			VersionID:       version.VersionID,
			Country:         pc.config.Country,
			CurrencyCode:    pc.config.CurrencyCode,
			BuyPrice:        pc.buy.Price,
			SellPrice:       pc.sell.Price,
			IsVerified:      pc.buy.IsVerified && pc.sell.IsVerified,
			BuyMethod:       pc.buy.MethodUsed,
			SellMethod:      pc.sell.MethodUsed,
			ReferenceAmount: pc.config.ReferenceAmount,
		})
	}

	routes, err := s.buildRouteMatrix(ctx, version.VersionID, priced)
	if err != nil {
		return nil, err
	}

	// Write phase: all-or-nothing. Any failure leaves the previous version active.
	if err := s.rateRepo.ActivateNewVersion(ctx, version, prices, routes, now); err != nil {
		return nil, fmt.Errorf("failed to activate rate version %s: %w", version.VersionID, err)
	}

	result := &domain.GenerationResult{
		Version:             &version,
		PricedCountries:     countryNames(priced),
		FailedCountries:     failed,
		UnverifiedCountries: unverified,
		RouteCount:          len(routes),
	}
	logger.Info("Rate version activated",
		slog.String("version_id", version.VersionID),
		slog.String("kind", string(kind)),
		slog.Int("priced", len(priced)),
		slog.Int("failed", len(failed)),
		slog.Int("routes", len(routes)),
	)
	return result, nil
}

// fetchWithFallback tries the country's payment methods in order; the first
// success wins.
func (s *rateService) fetchWithFallback(ctx context.Context, cfg domain.CountryQuoteConfig, side domain.QuoteSide) (*portssvc.Quote, error) {
	if len(cfg.PaymentMethods) == 0 {
		return nil, fmt.Errorf("%w: no payment methods configured for %s", apperrors.ErrValidation, cfg.Country)
	}
	logger := middleware.GetLoggerFromCtx(ctx)
	var lastErr error
	for _, method := range cfg.PaymentMethods {
		quote, err := s.quotes.FetchPrice(ctx, cfg.CurrencyCode, side, method, cfg.ReferenceAmount)
		if err != nil {
			if !errors.Is(err, apperrors.ErrQuoteUnavailable) {
				return nil, err
			}
			logger.Debug("Quote method failed, trying next",
				slog.String("country", cfg.Country),
				slog.String("side", string(side)),
				slog.String("method", method),
			)
			lastErr = err
			continue
		}
		return quote, nil
	}
	return nil, fmt.Errorf("all payment methods exhausted for %s %s: %w", cfg.Country, side, lastErr)
}

// buildRouteMatrix generates the full cross product of routes among priced
// countries. base = sell[dest]/buy[origin]; client = base * (1 - commission).
func (s *rateService) buildRouteMatrix(ctx context.Context, versionID string, priced []pricedCountry) ([]domain.RouteRate, error) {
	routes := make([]domain.RouteRate, 0, len(priced)*(len(priced)-1))
	for _, origin := range priced {
		for _, dest := range priced {
			if origin.config.Country == dest.config.Country {
				continue
			}
			commission, err := s.resolver.ResolveCommission(ctx, origin.config.Country, dest.config.Country)
			if err != nil {
				return nil, err
			}
			baseRate := dest.sell.Price.Div(origin.buy.Price)
			routes = append(routes, domain.RouteRate{
				VersionID:     versionID,
				OriginCountry: origin.config.Country,
				DestCountry:   dest.config.Country,
				CommissionPct: commission,
				OriginBuy:     origin.buy.Price,
				DestSell:      dest.sell.Price,
				BaseRate:      baseRate,
				ClientRate:    baseRate.Mul(one.Sub(commission)),
			})
		}
	}
	return routes, nil
}

// GetActiveVersion retrieves the currently active rate version.
func (s *rateService) GetActiveVersion(ctx context.Context) (*domain.RateVersion, error) {
	return s.rateRepo.FindActiveVersion(ctx)
}

// GetVersion retrieves a rate version by id, active or not.
func (s *rateService) GetVersion(ctx context.Context, versionID string) (*domain.RateVersion, error) {
	return s.rateRepo.FindVersionByID(ctx, versionID)
}

// ListCountryPrices retrieves the raw country prices of a version.
func (s *rateService) ListCountryPrices(ctx context.Context, versionID string) ([]domain.CountryPrice, error) {
	return s.rateRepo.ListCountryPricesByVersion(ctx, versionID)
}

// GetRouteRate retrieves one route rate within a version.
func (s *rateService) GetRouteRate(ctx context.Context, versionID, originCountry, destCountry string) (*domain.RouteRate, error) {
	return s.rateRepo.FindRouteRate(ctx, versionID, originCountry, destCountry)
}

// ListRoutes retrieves the full route matrix of a version.
func (s *rateService) ListRoutes(ctx context.Context, versionID string) ([]domain.RouteRate, error) {
	return s.rateRepo.ListRoutesByVersion(ctx, versionID)
}

func countryNames(priced []pricedCountry) []string {
	names := make([]string, 0, len(priced))
	for _, pc := range priced {
		names = append(names, pc.config.Country)
	}
	return names
}
