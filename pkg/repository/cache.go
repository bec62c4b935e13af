package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/go-redis/redis/v8"
)

// ProductCache is a read-through Redis cache for product detail lookups.
// A nil *ProductCache is valid and behaves as a permanent miss, so callers
// never need to branch on whether caching is configured.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(cfg *config.RedisConfig) *ProductCache {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ProductCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		ttl: ttl,
	}
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

// Get returns the cached product, or (nil, nil) on a miss.
func (c *ProductCache) Get(ctx context.Context, id string) (*models.Product, error) {
	if c == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, productKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var product models.Product
	if err := json.Unmarshal([]byte(data), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *ProductCache) Set(ctx context.Context, product *models.Product) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKey(product.ID), data, c.ttl).Err()
}

// Invalidate drops cached entries for the given product ids. Called after
// every catalog write, including stock changes from order placement and
// cancellation.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...string) error {
	if c == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *ProductCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *ProductCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
