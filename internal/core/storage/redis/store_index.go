package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/freshtally/freshtally/internal/core/aggregation"
	"github.com/freshtally/freshtally/internal/core/storage"
)

const (
	keyPrefix  = "freshtally:product_stores:"
	scanBatch  = 200
	DefaultTTL = 10 * time.Minute
)

// NewClient creates a client and checks the server is reachable.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// CachedStoreIndex keeps each product's store set in a Redis set in front of a
// durable storage.StoreIndex. Redis failures degrade to the backing index.
type CachedStoreIndex struct {
	client  goredis.Cmdable
	backing storage.StoreIndex
	ttl     time.Duration
}

// NewCachedStoreIndex wraps backing. A non-positive ttl uses DefaultTTL.
func NewCachedStoreIndex(client goredis.Cmdable, backing storage.StoreIndex, ttl time.Duration) *CachedStoreIndex {
	if client == nil || backing == nil {
		panic("redis: NewCachedStoreIndex requires a client and a backing index")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedStoreIndex{client: client, backing: backing, ttl: ttl}
}

// trackStoreScript adds a store to a product's set only while the set is live,
// refreshing its TTL. A missing set stays missing so the next read loads it in full.
var trackStoreScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('SADD', KEYS[1], ARGV[1])
	redis.call('EXPIRE', KEYS[1], ARGV[2])
	return 1
end
return 0
`)

func cacheKey(productID string) string {
	return keyPrefix + productID
}

// StoresForProduct serves from the cached set when present, otherwise loads
// from the backing index and fills the cache.
func (c *CachedStoreIndex) StoresForProduct(ctx context.Context, productID string) ([]string, error) {
	key := cacheKey(productID)

	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		slog.Warn("[StoreIndexCache] Read failed, using backing index", "product_id", productID, "error", err)
	} else if len(members) > 0 {
		sort.Strings(members)
		return members, nil
	}

	stores, err := c.backing.StoresForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return stores, nil
	}

	args := make([]interface{}, len(stores))
	for i, s := range stores {
		args[i] = s
	}
	_, err = c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.SAdd(ctx, key, args...)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		slog.Warn("[StoreIndexCache] Fill failed", "product_id", productID, "error", err)
	}
	return stores, nil
}

// Track writes through to the backing index, then adds the store to the cached
// set if one is live. The check and the add run as one script.
func (c *CachedStoreIndex) Track(ctx context.Context, productID, storeID string) error {
	if err := c.backing.Track(ctx, productID, storeID); err != nil {
		return err
	}

	key := cacheKey(productID)
	ttlSeconds := int64(c.ttl / time.Second)
	if err := trackStoreScript.Run(ctx, c.client, []string{key}, storeID, ttlSeconds).Err(); err != nil {
		// Drop the set rather than leave it missing a store.
		slog.Warn("[StoreIndexCache] Add failed, invalidating", "product_id", productID, "error", err)
		c.client.Del(ctx, key)
	}
	return nil
}

// Pairs is served by the backing index.
func (c *CachedStoreIndex) Pairs(ctx context.Context) ([]aggregation.Key, error) {
	return c.backing.Pairs(ctx)
}

// Rebuild rebuilds the backing index when it supports it, then drops every
// cached set.
func (c *CachedStoreIndex) Rebuild(ctx context.Context) (int64, error) {
	var added int64
	if r, ok := c.backing.(storage.StoreIndexRebuilder); ok {
		n, err := r.Rebuild(ctx)
		if err != nil {
			return 0, err
		}
		added = n
	}

	flushed, err := c.Flush(ctx)
	if err != nil {
		return added, err
	}
	slog.Info("[StoreIndexCache] Cache flushed after rebuild", "keys", flushed)
	return added, nil
}

// Flush deletes every cached product set and returns how many were removed.
func (c *CachedStoreIndex) Flush(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("scan cached store sets: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return removed, fmt.Errorf("delete cached store sets: %w", err)
			}
			removed += len(keys)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
