package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const categoryKeyPrefix = "kasir:catalog:categories:"

// Cache holds each owner's merged category list (own plus global). Products
// are not cached: stock changes on every sale.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCache returns a category cache. A nil client or a non-positive ttl
// turns every call into a miss.
func NewCache(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func categoryKey(ownerID int64) string {
	return categoryKeyPrefix + strconv.FormatInt(ownerID, 10)
}

// Categories returns the cached list for ownerID and whether it was present.
func (c *Cache) Categories(ctx context.Context, ownerID int64) ([]Category, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, categoryKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []Category
	if err := json.Unmarshal(data, &out); err != nil {
		// A stale encoding is treated as a miss and overwritten.
		return nil, false, nil
	}
	return out, true, nil
}

// StoreCategories caches list for ownerID.
func (c *Cache) StoreCategories(ctx context.Context, ownerID int64, list []Category) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, categoryKey(ownerID), data, c.ttl).Err()
}

// Forget drops the cached list for ownerID after a category write.
func (c *Cache) Forget(ctx context.Context, ownerID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, categoryKey(ownerID)).Err()
}
