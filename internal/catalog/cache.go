// Package catalog caches the public published-product listing in redis.
// The storefront landing page hits this listing far more often than the
// catalog changes; entries expire on TTL and are dropped eagerly whenever
// an admin touches a product.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/vtryon/lensmart/config"
	"github.com/vtryon/lensmart/internal/domain"
)

const (
	keyPrefix  = "lensmart:catalog:"
	defaultTTL = time.Minute
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(cfg *config.AppConfig) *Cache {
	return &Cache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Passwd,
			DB:       cfg.Redis.Db,
		}),
		ttl: defaultTTL,
	}
}

// ListingKey identifies one filtered view of the published catalog
func ListingKey(categoryId int64, inStock bool, search string) string {
	return fmt.Sprintf("%sproducts:%d:%t:%s", keyPrefix, categoryId, inStock, search)
}

// GetListing returns the cached products for key, if present
func (c *Cache) GetListing(ctx context.Context, key string) ([]domain.Product, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.L().Debug("catalog: cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false
	}
	return products, true
}

// PutListing stores a filtered view; failures only cost the next read a
// database round trip.
func (c *Cache) PutListing(ctx context.Context, key string, products []domain.Product) {
	raw, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		zap.L().Debug("catalog: cache write failed", zap.Error(err))
	}
}

// Invalidate drops every cached listing; called on any product mutation
func (c *Cache) Invalidate(ctx context.Context) {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			zap.L().Debug("catalog: cache invalidate failed", zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		zap.L().Debug("catalog: cache scan failed", zap.Error(err))
	}
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
