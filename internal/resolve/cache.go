package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/asset-scout/internal/types"
)

// Cache stores listings by slug. Implementations never fail the caller; a
// broken cache behaves like an empty one.
type Cache interface {
	Get(ctx context.Context, slug string) (*types.Listing, bool)
	Set(ctx context.Context, slug string, listing *types.Listing)
}

// NopCache caches nothing.
type NopCache struct{}

// Get always misses.
func (NopCache) Get(context.Context, string) (*types.Listing, bool) { return nil, false }

// Set discards the listing.
func (NopCache) Set(context.Context, string, *types.Listing) {}

// cacheEntry keeps the raw API document alongside the listing, since the
// listing's own JSON form omits it.
type cacheEntry struct {
	Listing  types.Listing `json:"listing"`
	Raw      string        `json:"raw,omitempty"`
	CachedAt time.Time     `json:"cached_at"`
}

func newCacheEntry(listing *types.Listing, now time.Time) cacheEntry {
	return cacheEntry{Listing: *listing, Raw: listing.RawJSON, CachedAt: now}
}

func (e cacheEntry) listing() *types.Listing {
	l := e.Listing
	l.RawJSON = e.Raw
	return &l
}

// MemoryCache is a process-local TTL cache.
type MemoryCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewMemoryCache returns an in-memory cache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns a copy of the cached listing if it has not expired.
func (c *MemoryCache) Get(_ context.Context, slug string) (*types.Listing, bool) {
	c.mu.RLock()
	entry, ok := c.entries[slug]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.CachedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, slug)
		c.mu.Unlock()
		return nil, false
	}
	return entry.listing(), true
}

// Set stores a copy of listing.
func (c *MemoryCache) Set(_ context.Context, slug string, listing *types.Listing) {
	if slug == "" || listing == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[slug] = newCacheEntry(listing, c.now())
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

const redisKeyPrefix = "asset-scout:listing:"

// RedisCache shares listings between processes through Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to the Redis server at rawURL (redis://host:port/db).
func NewRedisCache(ctx context.Context, rawURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisCacheWithClient(client, ttl), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get reads a listing; Redis errors are logged and reported as a miss.
func (c *RedisCache) Get(ctx context.Context, slug string) (*types.Listing, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+slug).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[resolve] redis get %s failed: %v", slug, err)
		}
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Printf("[resolve] corrupt cache entry for %s: %v", slug, err)
		return nil, false
	}
	return entry.listing(), true
}

// Set writes a listing with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, slug string, listing *types.Listing) {
	if slug == "" || listing == nil {
		return
	}
	data, err := json.Marshal(newCacheEntry(listing, time.Now()))
	if err != nil {
		log.Printf("[resolve] failed to encode cache entry for %s: %v", slug, err)
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+slug, data, c.ttl).Err(); err != nil {
		log.Printf("[resolve] redis set %s failed: %v", slug, err)
	}
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
