// Package redis caches URL lookups in Redis. Only data that stays valid for the
// lifetime of a record is relied upon by readers: activity is re-evaluated
// against the clock on every read and entries are dropped on deactivation.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	defaultTTL       = 10 * time.Minute
	defaultKeyPrefix = "url:"
)

type cachedURL struct {
	ID            int64      `json:"id"`
	ShortCode     string     `json:"short_code"`
	OriginalURL   string     `json:"original_url"`
	IsCustomAlias bool       `json:"is_custom_alias"`
	ClickCount    int64      `json:"click_count"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func fromEntity(u *entity.URL) cachedURL {
	return cachedURL{
		ID:            u.ID,
		ShortCode:     u.ShortCode,
		OriginalURL:   u.OriginalURL,
		IsCustomAlias: u.IsCustomAlias,
		ClickCount:    u.ClickCount,
		CreatedAt:     u.CreatedAt,
		ExpiresAt:     u.ExpiresAt,
		DeactivatedAt: u.DeactivatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (c *cachedURL) toEntity() *entity.URL {
	return &entity.URL{
		ID:            c.ID,
		ShortCode:     c.ShortCode,
		OriginalURL:   c.OriginalURL,
		IsCustomAlias: c.IsCustomAlias,
		URLStats: entity.URLStats{
			ClickCount: c.ClickCount,
		},
		CreatedAt:     c.CreatedAt,
		ExpiresAt:     c.ExpiresAt,
		DeactivatedAt: c.DeactivatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type URLCache struct {
	client    redis.Cmdable
	ttl       time.Duration
	keyPrefix string
}

func NewURLCache(client redis.Cmdable, ttl time.Duration) *URLCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &URLCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: defaultKeyPrefix,
	}
}

func (c *URLCache) key(shortCode string) string {
	return c.keyPrefix + shortCode
}

// Get returns the cached URL and true, or false on a miss.
func (c *URLCache) Get(ctx context.Context, shortCode string) (*entity.URL, bool, error) {
	const op = "adapter.cache.redis.URLCache.Get"

	data, err := c.client.Get(ctx, c.key(shortCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("%s: failed to get key: %w", op, err)
	}

	var cached cachedURL
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("%s: failed to decode cached url: %w", op, err)
	}

	return cached.toEntity(), true, nil
}

func (c *URLCache) Set(ctx context.Context, url *entity.URL) error {
	const op = "adapter.cache.redis.URLCache.Set"

	data, err := json.Marshal(fromEntity(url))
	if err != nil {
		return fmt.Errorf("%s: failed to encode url: %w", op, err)
	}

	if err := c.client.Set(ctx, c.key(url.ShortCode), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: failed to set key: %w", op, err)
	}

	return nil
}

func (c *URLCache) Delete(ctx context.Context, shortCode string) error {
	const op = "adapter.cache.redis.URLCache.Delete"

	if err := c.client.Del(ctx, c.key(shortCode)).Err(); err != nil {
		return fmt.Errorf("%s: failed to delete key: %w", op, err)
	}

	return nil
}
