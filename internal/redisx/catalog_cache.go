package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-marketplace/internal/market"
	"github.com/redis/go-redis/v9"
)

// CatalogCache caches seller catalog reads under a per-seller generation.
type CatalogCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCatalogCache(rdb *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = TTLCatalog
	}
	return &CatalogCache{rdb: rdb, ttl: ttl}
}

func (c *CatalogCache) generation(ctx context.Context, sellerID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, fmt.Sprintf(KeyCatalogGen, sellerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *CatalogCache) Get(ctx context.Context, sellerID string) (*market.Catalog, int64, bool, error) {
	gen, err := c.generation(ctx, sellerID)
	if err != nil {
		return nil, 0, false, err
	}
	b, err := c.rdb.Get(ctx, fmt.Sprintf(KeyCatalog, sellerID, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}
	var out *market.Catalog
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, gen, false, fmt.Errorf("decode cached catalog: %w", err)
	}
	return out, gen, true, nil
}

func (c *CatalogCache) Set(ctx context.Context, sellerID string, gen int64, catalog *market.Catalog) error {
	b, err := json.Marshal(catalog)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf(KeyCatalog, sellerID, gen), b, c.ttl).Err()
}

// Invalidate bumps the generation; entries under older generations expire
// on their own.
func (c *CatalogCache) Invalidate(ctx context.Context, sellerID string) error {
	key := fmt.Sprintf(KeyCatalogGen, sellerID)
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, TTLCatalogGen)
	_, err := pipe.Exec(ctx)
	return err
}
