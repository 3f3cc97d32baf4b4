package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/middleware"
)

// Setting keys consulted by the resolver, most specific first.
const (
	settingKeyRouteMargin  = "margin_route_%s_%s" // origin, destination
	settingKeyDestMargin   = "margin_destination_%s"
	settingKeyOriginMargin = "margin_origin_%s"
	settingKeyDefault      = "margin_default"
)

var (
	commissionFloor = decimal.Zero
	commissionCeil  = decimal.RequireFromString("0.5")

	// fallbackCommission applies when not even the global default margin is
	// configured.
	fallbackCommission = decimal.RequireFromString("0.05")
)

// commissionResolver resolves the effective commission for a route through
// the priority chain: route override, destination margin, origin margin,
// global default. Reads go through the short-TTL setting cache.
type commissionResolver struct {
	settings *SettingCache
}

// NewCommissionResolver creates a commission resolver backed by the setting cache.
func NewCommissionResolver(settings *SettingCache) portssvc.CommissionResolverSvc {
	return &commissionResolver{settings: settings}
}

var _ portssvc.CommissionResolverSvc = (*commissionResolver)(nil)

// ResolveCommission walks the priority chain and returns the first configured
// value, clamped to [0, 0.5]. Out-of-range configuration is logged as an
// error and clamped rather than rejected: callers always receive a valid
// commission. Only store failures propagate as errors.
func (r *commissionResolver) ResolveCommission(ctx context.Context, originCountry, destCountry string) (decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	keys := []string{
		fmt.Sprintf(settingKeyRouteMargin, originCountry, destCountry),
		fmt.Sprintf(settingKeyDestMargin, destCountry),
		fmt.Sprintf(settingKeyOriginMargin, originCountry),
		settingKeyDefault,
	}

	for _, key := range keys {
		value, err := r.settings.GetDecimal(ctx, key)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			if errors.Is(err, apperrors.ErrValidation) {
				// A malformed value falls through to the next level rather
				// than blocking pricing.
				logger.Error("Malformed commission setting", slog.String("key", key), slog.String("error", err.Error()))
				continue
			}
			return decimal.Zero, fmt.Errorf("failed to resolve commission for %s->%s: %w", originCountry, destCountry, err)
		}
		return r.clamp(ctx, key, value), nil
	}

	logger.Warn("No commission margin configured, using fallback",
		slog.String("origin", originCountry),
		slog.String("destination", destCountry),
		slog.String("fallback", fallbackCommission.String()),
	)
	return fallbackCommission, nil
}

func (r *commissionResolver) clamp(ctx context.Context, key string, value decimal.Decimal) decimal.Decimal {
	if value.LessThan(commissionFloor) || value.GreaterThan(commissionCeil) {
		clamped := value
		if value.LessThan(commissionFloor) {
			clamped = commissionFloor
		} else {
			clamped = commissionCeil
		}
		middleware.GetLoggerFromCtx(ctx).Error("Commission margin out of range, clamping",
			slog.String("key", key),
			slog.String("configured", value.String()),
			slog.String("clamped", clamped.String()),
		)
		return clamped
	}
	return value
}
