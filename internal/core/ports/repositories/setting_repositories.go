package repositories

import (
	"context"
	"encoding/json"
	"time"
)

// SettingRepository is the configuration store consumed by the commission
// resolver and the rate pipeline. Values are raw JSON documents keyed by
// name; reads go through a short-TTL cache at the service layer.
type SettingRepository interface {
	// GetJSON retrieves the raw JSON value for a key.
	// Returns apperrors.ErrNotFound when the key is absent.
	GetJSON(ctx context.Context, key string) (json.RawMessage, error)

	// SaveJSON upserts the value for a key.
	SaveJSON(ctx context.Context, key string, value json.RawMessage, actorUserID string, now time.Time) error
}
