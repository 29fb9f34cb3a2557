// Package availability caches capacity snapshots in Redis so the public
// availability endpoint and kiosk polling do not hammer the request store on
// match day. Strictly best-effort: every error path degrades to a store read.
package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/youssefloay/comebac-sub002/internal/admission/models"
	id "github.com/youssefloay/comebac-sub002/pkg/domain"
)

// DefaultTTL keeps snapshots fresh enough for a queue forming at the gate.
const DefaultTTL = 10 * time.Second

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func key(match id.MatchRef) string {
	return fmt.Sprintf("availability:%s:%s", match.Kind, match.ID)
}

func (c *RedisCache) Get(ctx context.Context, match id.MatchRef) (*models.Availability, error) {
	payload, err := c.client.Get(ctx, key(match)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("availability cache get: %w", err)
	}

	var availability models.Availability
	if err := json.Unmarshal(payload, &availability); err != nil {
		// A corrupt entry behaves like a miss.
		return nil, nil
	}
	return &availability, nil
}

func (c *RedisCache) Set(ctx context.Context, match id.MatchRef, availability models.Availability) error {
	payload, err := json.Marshal(availability)
	if err != nil {
		return fmt.Errorf("availability cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, key(match), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("availability cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, match id.MatchRef) error {
	if err := c.client.Del(ctx, key(match)).Err(); err != nil {
		return fmt.Errorf("availability cache invalidate: %w", err)
	}
	return nil
}
