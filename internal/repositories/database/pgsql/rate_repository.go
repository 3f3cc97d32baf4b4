package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	"github.com/remitwave/settlement_engine/internal/core/domain"
	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
)

// PgxRateVersionRepository persists rate versions, country prices and route rates.
type PgxRateVersionRepository struct {
	BaseRepository
}

// NewRateVersionRepository creates a new repository for rate data.
func NewRateVersionRepository(pool *pgxpool.Pool) portsrepo.RateVersionRepository {
	return &PgxRateVersionRepository{BaseRepository{Pool: pool}}
}

const rateVersionColumns = `version_id, kind, reason, created_at, created_by, effective_from, effective_to, is_active`

// ActivateNewVersion atomically deactivates the previous active version and
// inserts the new version with all its prices and routes. Any failure rolls
// the whole write back and leaves the previous version active, so readers
// never observe a half-populated rate version.
func (r *PgxRateVersionRepository) ActivateNewVersion(ctx context.Context, version domain.RateVersion, prices []domain.CountryPrice, routes []domain.RouteRate, now time.Time) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	deactivateQuery := `
		UPDATE rate_versions
		SET is_active = FALSE, effective_to = $1
		WHERE is_active = TRUE;
	`
	if _, err := tx.Exec(ctx, deactivateQuery, now); err != nil {
		return fmt.Errorf("failed to deactivate previous rate version: %w", err)
	}

	versionQuery := `
		INSERT INTO rate_versions (` + rateVersionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err = tx.Exec(ctx, versionQuery,
		version.VersionID,
		version.Kind,
		version.Reason,
		version.CreatedAt,
		version.CreatedBy,
		version.EffectiveFrom,
		version.EffectiveTo,
		version.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rate version %s: %w", version.VersionID, err)
	}

	batch := &pgx.Batch{}
	priceQuery := `
		INSERT INTO country_prices (version_id, country, currency_code, buy_price, sell_price, is_verified, buy_method, sell_method, reference_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	for _, p := range prices {
		batch.Queue(priceQuery,
			p.VersionID,
			p.Country,
			p.CurrencyCode,
			p.BuyPrice,
			p.SellPrice,
			p.IsVerified,
			p.BuyMethod,
			p.SellMethod,
			p.ReferenceAmount,
		)
	}
	routeQuery := `
		INSERT INTO route_rates (version_id, origin_country, dest_country, commission_pct, origin_buy, dest_sell, base_rate, client_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	for _, rt := range routes {
		batch.Queue(routeQuery,
			rt.VersionID,
			rt.OriginCountry,
			rt.DestCountry,
			rt.CommissionPct,
			rt.OriginBuy,
			rt.DestSell,
			rt.BaseRate,
			rt.ClientRate,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to execute price/route batch for version %s: %w", version.VersionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rate version %s: %w", version.VersionID, err)
	}
	return nil
}

// FindActiveVersion retrieves the currently active rate version.
func (r *PgxRateVersionRepository) FindActiveVersion(ctx context.Context) (*domain.RateVersion, error) {
	query := `
		SELECT ` + rateVersionColumns + `
		FROM rate_versions
		WHERE is_active = TRUE;
	`
	version, err := r.scanVersionRow(r.Pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNoActiveRate
		}
		return nil, fmt.Errorf("failed to find active rate version: %w", err)
	}
	return version, nil
}

// FindVersionByID retrieves a rate version by its identifier.
func (r *PgxRateVersionRepository) FindVersionByID(ctx context.Context, versionID string) (*domain.RateVersion, error) {
	query := `
		SELECT ` + rateVersionColumns + `
		FROM rate_versions
		WHERE version_id = $1;
	`
	version, err := r.scanVersionRow(r.Pool.QueryRow(ctx, query, versionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find rate version %s: %w", versionID, err)
	}
	return version, nil
}

func (r *PgxRateVersionRepository) scanVersionRow(row pgx.Row) (*domain.RateVersion, error) {
	var version domain.RateVersion
	err := row.Scan(
		&version.VersionID,
		&version.Kind,
		&version.Reason,
		&version.CreatedAt,
		&version.CreatedBy,
		&version.EffectiveFrom,
		&version.EffectiveTo,
		&version.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// FindRouteRate retrieves the route rate for one pair within a version.
func (r *PgxRateVersionRepository) FindRouteRate(ctx context.Context, versionID, originCountry, destCountry string) (*domain.RouteRate, error) {
	query := `
		SELECT version_id, origin_country, dest_country, commission_pct, origin_buy, dest_sell, base_rate, client_rate
		FROM route_rates
		WHERE version_id = $1 AND origin_country = $2 AND dest_country = $3;
	`
	var rt domain.RouteRate
	err := r.Pool.QueryRow(ctx, query, versionID, originCountry, destCountry).Scan(
		&rt.VersionID,
		&rt.OriginCountry,
		&rt.DestCountry,
		&rt.CommissionPct,
		&rt.OriginBuy,
		&rt.DestSell,
		&rt.BaseRate,
		&rt.ClientRate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRouteUnavailable
		}
		return nil, fmt.Errorf("failed to find route rate %s->%s in version %s: %w", originCountry, destCountry, versionID, err)
	}
	return &rt, nil
}

// ListRoutesByVersion retrieves the full route matrix of a version.
func (r *PgxRateVersionRepository) ListRoutesByVersion(ctx context.Context, versionID string) ([]domain.RouteRate, error) {
	query := `
		SELECT version_id, origin_country, dest_country, commission_pct, origin_buy, dest_sell, base_rate, client_rate
		FROM route_rates
		WHERE version_id = $1
		ORDER BY origin_country, dest_country;
	`
	rows, err := r.Pool.Query(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes for version %s: %w", versionID, err)
	}
	defer rows.Close()

	routes := []domain.RouteRate{}
	for rows.Next() {
		var rt domain.RouteRate
		if err := rows.Scan(
			&rt.VersionID,
			&rt.OriginCountry,
			&rt.DestCountry,
			&rt.CommissionPct,
			&rt.OriginBuy,
			&rt.DestSell,
			&rt.BaseRate,
			&rt.ClientRate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan route rate row for version %s: %w", versionID, err)
		}
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route rate rows for version %s: %w", versionID, err)
	}
	return routes, nil
}

// ListCountryPricesByVersion retrieves all country prices of a version.
func (r *PgxRateVersionRepository) ListCountryPricesByVersion(ctx context.Context, versionID string) ([]domain.CountryPrice, error) {
	query := `
		SELECT version_id, country, currency_code, buy_price, sell_price, is_verified, buy_method, sell_method, reference_amount
		FROM country_prices
		WHERE version_id = $1
		ORDER BY country;
	`
	rows, err := r.Pool.Query(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query country prices for version %s: %w", versionID, err)
	}
	defer rows.Close()

	prices := []domain.CountryPrice{}
	for rows.Next() {
		var p domain.CountryPrice
		if err := rows.Scan(
			&p.VersionID,
			&p.Country,
			&p.CurrencyCode,
			&p.BuyPrice,
			&p.SellPrice,
			&p.IsVerified,
			&p.BuyMethod,
			&p.SellMethod,
			&p.ReferenceAmount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan country price row for version %s: %w", versionID, err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating country price rows for version %s: %w", versionID, err)
	}
	return prices, nil
}
