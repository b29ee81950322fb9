package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stayhub/pkg/model"

	"github.com/redis/go-redis/v9"
)

// PropertyCache is a read-through cache for property records. A miss is
// (nil, nil); callers fall back to the store and repopulate.
type PropertyCache interface {
	Get(ctx context.Context, key model.PropertyKey) (*model.Property, error)
	Set(ctx context.Context, property *model.Property) error
	Invalidate(ctx context.Context, key model.PropertyKey) error
}

type redisPropertyCache struct {
	cli *redis.Client
	ttl time.Duration
}

func NewRedisPropertyCache(cli *redis.Client, ttl time.Duration) PropertyCache {
	return &redisPropertyCache{
		cli: cli,
		ttl: ttl,
	}
}

func cacheKey(key model.PropertyKey) string {
	return fmt.Sprintf("property:%s:%s", key.Location, key.PropertyID)
}

func (c *redisPropertyCache) Get(ctx context.Context, key model.PropertyKey) (*model.Property, error) {
	data, err := c.cli.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var property model.Property
	if err := json.Unmarshal(data, &property); err != nil {
		// A corrupt entry is treated as a miss and evicted.
		_ = c.cli.Del(ctx, cacheKey(key)).Err()
		return nil, nil
	}

	return &property, nil
}

func (c *redisPropertyCache) Set(ctx context.Context, property *model.Property) error {
	data, err := json.Marshal(property)
	if err != nil {
		return err
	}
	return c.cli.Set(ctx, cacheKey(property.Key()), data, c.ttl).Err()
}

func (c *redisPropertyCache) Invalidate(ctx context.Context, key model.PropertyKey) error {
	return c.cli.Del(ctx, cacheKey(key)).Err()
}
