package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/core/domain"
)

// RateSvcFacade exposes the rate pipeline and read-only rate queries.
type RateSvcFacade interface {
	// Generate runs one rate generation: quote fetch with per-country payment
	// method fallback, then an all-or-nothing activation of the new version.
	// Fails with apperrors.ErrInsufficientCoverage below two priced countries,
	// leaving the previous version active.
	Generate(ctx context.Context, kind domain.RateVersionKind, reason, actorUserID string) (*domain.GenerationResult, error)

	// GetActiveVersion retrieves the currently active rate version.
	GetActiveVersion(ctx context.Context) (*domain.RateVersion, error)

	// GetVersion retrieves a rate version by id, active or not.
	GetVersion(ctx context.Context, versionID string) (*domain.RateVersion, error)

	// ListCountryPrices retrieves the raw country prices of a version.
	ListCountryPrices(ctx context.Context, versionID string) ([]domain.CountryPrice, error)

	// GetRouteRate retrieves one route rate within a version.
	GetRouteRate(ctx context.Context, versionID, originCountry, destCountry string) (*domain.RouteRate, error)

	// ListRoutes retrieves the full route matrix of a version.
	ListRoutes(ctx context.Context, versionID string) ([]domain.RouteRate, error)
}

// CommissionResolverSvc resolves the effective commission percentage for a
// route through the priority chain: route override, destination margin,
// origin margin, global default. Resolved values are clamped to [0, 0.5];
// out-of-range configuration is logged and clamped, never rejected.
type CommissionResolverSvc interface {
	ResolveCommission(ctx context.Context, originCountry, destCountry string) (decimal.Decimal, error)
}
