package corporation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no unexpired entry exists for a number.
var ErrCacheMiss = errors.New("corporation number not cached")

// Cache stores lookup results per exact digit string. Only successful lookups are saved.
type Cache interface {
	Find(ctx context.Context, number string) (bool, error)
	Save(ctx context.Context, number string, valid bool) error
	Name() string
}

type cachedResult struct {
	valid    bool
	storedAt time.Time
}

// MemoryCache is an in-process TTL map. Expired entries are swept from Save at most once per TTL.
type MemoryCache struct {
	mu        sync.RWMutex
	entries   map[string]cachedResult
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cachedResult),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Name() string { return "memory" }

func (c *MemoryCache) Find(_ context.Context, number string) (bool, error) {
	c.mu.RLock()
	cached, ok := c.entries[number]
	c.mu.RUnlock()

	if !ok {
		return false, ErrCacheMiss
	}
	if c.now().Sub(cached.storedAt) >= c.ttl {
		c.mu.Lock()
		if cur, ok := c.entries[number]; ok && cur.storedAt.Equal(cached.storedAt) {
			delete(c.entries, number)
		}
		c.mu.Unlock()
		return false, ErrCacheMiss
	}
	return cached.valid, nil
}

func (c *MemoryCache) Save(_ context.Context, number string, valid bool) error {
	if c.ttl <= 0 {
		return nil
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Sub(c.lastSweep) >= c.ttl {
		c.sweepLocked(now)
	}
	c.entries[number] = cachedResult{valid: valid, storedAt: now}
	return nil
}

func (c *MemoryCache) sweepLocked(now time.Time) {
	for number, cached := range c.entries {
		if now.Sub(cached.storedAt) >= c.ttl {
			delete(c.entries, number)
		}
	}
	c.lastSweep = now
}

// Len reports the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

const redisKeyPrefix = "corporation-number:"

type redisEntry struct {
	Valid     bool      `json:"valid"`
	CheckedAt time.Time `json:"checkedAt"`
}

// RedisCache shares lookup results between worker instances.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Name() string { return "redis" }

func redisKey(number string) string {
	return redisKeyPrefix + number
}

func (c *RedisCache) Find(ctx context.Context, number string) (bool, error) {
	raw, err := c.client.Get(ctx, redisKey(number)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, ErrCacheMiss
		}
		return false, fmt.Errorf("redis get %s: %w", redisKey(number), err)
	}

	var entry redisEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return false, fmt.Errorf("decode cached lookup %s: %w", redisKey(number), err)
	}
	return entry.Valid, nil
}

func (c *RedisCache) Save(ctx context.Context, number string, valid bool) error {
	if c.ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(redisEntry{Valid: valid, CheckedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, redisKey(number), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", redisKey(number), err)
	}
	return nil
}
