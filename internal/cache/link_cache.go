// Package cache provides a Redis read-through cache for the resolve
// path. Entries are invalidated on update and delete, so a stale link
// can only be served within the write's own round trip.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shortly-io/shortly/internal/models"
)

// DefaultTTL bounds how long a resolved link may be served without a
// database read.
const DefaultTTL = time.Hour

// LinkCache caches short_code → Link. A nil *LinkCache is valid and
// disables caching, so callers never branch on configuration.
type LinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a LinkCache on the given Redis client. A non-positive ttl
// falls back to DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *LinkCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LinkCache{client: client, ttl: ttl}
}

func key(code string) string {
	return "url:" + code
}

// Get returns the cached link for a code, or (nil, nil) on a miss.
func (c *LinkCache) Get(ctx context.Context, code string) (*models.Link, error) {
	if c == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, key(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get %q: %w", code, err)
	}
	var link models.Link
	if err := json.Unmarshal([]byte(raw), &link); err != nil {
		// Treat a corrupt entry as a miss; the DB read will refill it.
		return nil, nil
	}
	return &link, nil
}

// Set stores a link under its short code.
func (c *LinkCache) Set(ctx context.Context, link *models.Link) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("cache marshal %q: %w", link.ShortCode, err)
	}
	if err := c.client.Set(ctx, key(link.ShortCode), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", link.ShortCode, err)
	}
	return nil
}

// Invalidate drops the entry for a code. Called on update, deactivation
// and delete.
func (c *LinkCache) Invalidate(ctx context.Context, code string) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, key(code)).Err(); err != nil {
		return fmt.Errorf("cache invalidate %q: %w", code, err)
	}
	return nil
}
