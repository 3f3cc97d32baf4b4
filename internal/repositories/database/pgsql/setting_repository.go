package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
)

// PgxSettingRepository persists named JSON settings.
type PgxSettingRepository struct {
	BaseRepository
}

// NewSettingRepository creates a new repository for application settings.
func NewSettingRepository(pool *pgxpool.Pool) portsrepo.SettingRepository {
	return &PgxSettingRepository{BaseRepository{Pool: pool}}
}

// GetJSON retrieves the raw JSON value for a key.
func (r *PgxSettingRepository) GetJSON(ctx context.Context, key string) (json.RawMessage, error) {
	query := `SELECT value FROM app_settings WHERE key = $1;`
	var value json.RawMessage
	if err := r.Pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// SaveJSON upserts the value for a key.
func (r *PgxSettingRepository) SaveJSON(ctx context.Context, key string, value json.RawMessage, actorUserID string, now time.Time) error {
	query := `
		INSERT INTO app_settings (key, value, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, last_updated_at = EXCLUDED.last_updated_at, last_updated_by = EXCLUDED.last_updated_by;
	`
	if _, err := r.Pool.Exec(ctx, query, key, value, now, actorUserID); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}
