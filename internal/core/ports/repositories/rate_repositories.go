package repositories

import (
	"context"
	"time"

	"github.com/remitwave/settlement_engine/internal/core/domain"
)

// RateVersionReader defines read operations for rate version data.
type RateVersionReader interface {
	// FindActiveVersion retrieves the currently active rate version.
	// Returns apperrors.ErrNoActiveRate when none is active.
	FindActiveVersion(ctx context.Context) (*domain.RateVersion, error)

	// FindVersionByID retrieves a rate version by its identifier.
	FindVersionByID(ctx context.Context, versionID string) (*domain.RateVersion, error)

	// FindRouteRate retrieves the route rate for one origin->destination pair
	// within a version. Returns apperrors.ErrRouteUnavailable when the pair is
	// not priced.
	FindRouteRate(ctx context.Context, versionID, originCountry, destCountry string) (*domain.RouteRate, error)

	// ListRoutesByVersion retrieves the full route matrix of a version.
	ListRoutesByVersion(ctx context.Context, versionID string) ([]domain.RouteRate, error)

	// ListCountryPricesByVersion retrieves all country prices of a version.
	ListCountryPricesByVersion(ctx context.Context, versionID string) ([]domain.CountryPrice, error)
}

// RateVersionWriter defines the single write operation of the rate pipeline.
type RateVersionWriter interface {
	// ActivateNewVersion atomically deactivates the previously active version
	// (setting its effective-to timestamp), inserts the new version, and
	// inserts all country prices and route rates. Any failure rolls the whole
	// write back, leaving the previous version active.
	ActivateNewVersion(ctx context.Context, version domain.RateVersion, prices []domain.CountryPrice, routes []domain.RouteRate, now time.Time) error
}

// RateVersionRepository combines all rate repository interfaces.
type RateVersionRepository interface {
	RateVersionReader
	RateVersionWriter
}
