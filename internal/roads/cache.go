package roads

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores road classifications per rounded coordinate key. Entries
// expire after the TTL; nothing ever invalidates them explicitly.
type Cache interface {
	Get(ctx context.Context, key string) (RoadInfo, bool)
	Set(ctx context.Context, key string, info RoadInfo)
}

type memoryEntry struct {
	info RoadInfo
	at   time.Time
}

// MemoryCache is the single-process implementation.
type MemoryCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: map[string]memoryEntry{}}
}

func (c *MemoryCache) Get(_ context.Context, key string) (RoadInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return RoadInfo{}, false
	}
	if time.Since(entry.at) > c.ttl {
		delete(c.entries, key)
		return RoadInfo{}, false
	}
	return entry.info, true
}

func (c *MemoryCache) Set(_ context.Context, key string, info RoadInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{info: info, at: time.Now()}
}

// RedisCache shares classifications across instances; a horizontally scaled
// deployment swaps this in without touching classifier call sites.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func redisKey(key string) string {
	return "roadinfo:" + key
}

func (c *RedisCache) Get(ctx context.Context, key string) (RoadInfo, bool) {
	raw, err := c.client.Get(ctx, redisKey(key)).Result()
	if err != nil {
		return RoadInfo{}, false
	}
	var info RoadInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return RoadInfo{}, false
	}
	return info, true
}

func (c *RedisCache) Set(ctx context.Context, key string, info RoadInfo) {
	b, _ := json.Marshal(info)
	_ = c.client.Set(ctx, redisKey(key), b, c.ttl).Err()
}
