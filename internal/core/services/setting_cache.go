package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/remitwave/settlement_engine/internal/apperrors"
	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
)

// DefaultSettingTTL bounds how long a configuration change can take to
// propagate to readers.
const DefaultSettingTTL = 60 * time.Second

type settingCacheEntry struct {
	value     json.RawMessage
	absent    bool
	fetchedAt time.Time
}

// SettingCache wraps the setting repository with a short-TTL read cache.
// The clock is injected so tests can control expiry. Absent keys are cached
// too, so the commission resolver's fallthrough chain does not hammer the
// store on every lookup.
type SettingCache struct {
	repo  portsrepo.SettingRepository
	ttl   time.Duration
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]settingCacheEntry
}

// NewSettingCache creates a setting cache. A nil clock defaults to time.Now.
func NewSettingCache(repo portsrepo.SettingRepository, ttl time.Duration, clock func() time.Time) *SettingCache {
	if clock == nil {
		clock = time.Now
	}
	if ttl <= 0 {
		ttl = DefaultSettingTTL
	}
	return &SettingCache{
		repo:    repo,
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]settingCacheEntry),
	}
}

// GetJSON returns the raw JSON value for a key, reading through the cache.
// Returns apperrors.ErrNotFound for absent keys.
func (c *SettingCache) GetJSON(ctx context.Context, key string) (json.RawMessage, error) {
	now := c.clock()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && now.Sub(entry.fetchedAt) < c.ttl {
		if entry.absent {
			return nil, apperrors.ErrNotFound
		}
		return entry.value, nil
	}

	value, err := c.repo.GetJSON(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.store(key, settingCacheEntry{absent: true, fetchedAt: now})
			return nil, apperrors.ErrNotFound
		}
		// Store failures are not cached; the next read retries.
		return nil, fmt.Errorf("failed to read setting %q: %w", key, err)
	}

	c.store(key, settingCacheEntry{value: value, fetchedAt: now})
	return value, nil
}

// GetDecimal reads a key holding a JSON number or numeric string.
func (c *SettingCache) GetDecimal(ctx context.Context, key string) (decimal.Decimal, error) {
	raw, err := c.GetJSON(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return decimal.Zero, fmt.Errorf("%w: setting %q is not a decimal: %v", apperrors.ErrValidation, key, err)
	}
	return d, nil
}

// GetInt reads a key holding a JSON integer.
func (c *SettingCache) GetInt(ctx context.Context, key string) (int, error) {
	raw, err := c.GetJSON(ctx, key)
	if err != nil {
		return 0, err
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%w: setting %q is not an integer: %v", apperrors.ErrValidation, key, err)
	}
	return n, nil
}

// Unmarshal reads a key into an arbitrary structure.
func (c *SettingCache) Unmarshal(ctx context.Context, key string, v any) error {
	raw, err := c.GetJSON(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: setting %q has unexpected shape: %v", apperrors.ErrValidation, key, err)
	}
	return nil
}

// SaveJSON writes a setting through to the store and drops the cached copy,
// so the writer observes its own write on the next read.
func (c *SettingCache) SaveJSON(ctx context.Context, key string, value json.RawMessage, actorUserID string) error {
	if err := c.repo.SaveJSON(ctx, key, value, actorUserID, c.clock()); err != nil {
		return fmt.Errorf("failed to save setting %q: %w", key, err)
	}
	c.Invalidate(key)
	return nil
}

// Invalidate drops one key from the cache, forcing a fresh read.
func (c *SettingCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *SettingCache) store(key string, entry settingCacheEntry) {
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}
