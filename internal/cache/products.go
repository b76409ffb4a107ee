package cache

import (
	"context"
	"fmt"

	"time"

	"github.com/redis/go-redis/v9"
)

// ProductCache stores serialized product-list pages under a versioned
// key. Invalidate bumps the version, which makes every cached page
// unreachable at once — the server-side analog of tag invalidation.
// A nil cache (or nil client) disables caching entirely.
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

const productsVersionKey = "products:ver"

func NewProductCache(rdb *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &ProductCache{rdb: rdb, ttl: ttl}
}

func (c *ProductCache) enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *ProductCache) pageKey(ctx context.Context, page int) string {
	ver, err := c.rdb.Get(ctx, productsVersionKey).Result()

	if err != nil {
		ver = "0"
	}

	return fmt.Sprintf("products:list:v%s:page:%d", ver, page)
}

func (c *ProductCache) GetPage(ctx context.Context, page int) ([]byte, bool) {
	if !c.enabled() {
		return nil, false
	}

	payload, err := c.rdb.Get(ctx, c.pageKey(ctx, page)).Bytes()

	if err != nil {
		return nil, false
	}

	return payload, true
}

func (c *ProductCache) SetPage(ctx context.Context, page int, payload []byte) {
	if !c.enabled() {
		return
	}

	// best effort: a failed SET only costs a future cache miss
	c.rdb.Set(ctx, c.pageKey(ctx, page), payload, c.ttl)
}

func (c *ProductCache) Invalidate(ctx context.Context) {
	if !c.enabled() {
		return
	}

	c.rdb.Incr(ctx, productsVersionKey)
}
