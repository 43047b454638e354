package cache

import (
	"context"
	"sync"
	"time"

	pderrors "github.com/Humphrey-He/productdash/pkg/errors"
)

// memoryCache is a simple in-memory cache implementation.
//
// memoryCache 是一个简单的内存缓存实现。
type memoryCache[V any] struct {
	name       string
	items      map[string]memoryItem[V]
	mu         sync.Mutex
	stats      Stats
	maxEntries int
	defaultTTL time.Duration
	closed     bool
	now        func() time.Time
}

// memoryItem represents a single item in the cache with its value, expiration and last access time.
//
// memoryItem 表示缓存中的单个项目及其值、过期时间和最后访问时间。
type memoryItem[V any] struct {
	value      V
	expiration time.Time
	accessed   time.Time
}

// NewMemory creates an in-memory cache. Only Name, MaxEntries and DefaultTTL
// are read from config.
//
// NewMemory 创建内存缓存。仅读取config中的Name、MaxEntries和DefaultTTL。
func NewMemory[V any](config *Config) ICache[V] {
	if config == nil {
		config = NewDefaultConfig()
	}
	return &memoryCache[V]{
		name:       config.Name,
		items:      make(map[string]memoryItem[V]),
		maxEntries: config.MaxEntries,
		defaultTTL: config.DefaultTTL,
		now:        time.Now,
	}
}

func (c *memoryCache[V]) expired(item memoryItem[V], now time.Time) bool {
	return !item.expiration.IsZero() && now.After(item.expiration)
}

// Get retrieves a value from the cache.
//
// Get 从缓存中检索值。
func (c *memoryCache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return zero, false, pderrors.ErrClosed
	}

	item, found := c.items[key]
	now := c.now()
	if !found || c.expired(item, now) {
		if found {
			delete(c.items, key)
		}
		c.stats.Misses++
		return zero, false, nil
	}

	item.accessed = now
	c.items[key] = item
	c.stats.Hits++
	return item.value, true, nil
}

// Set adds a value to the cache with the specified TTL.
//
// Set 将值添加到缓存中，并指定TTL。
func (c *memoryCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	if key == "" {
		return pderrors.ErrInvalidKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return pderrors.ErrClosed
	}

	now := c.now()
	expiration := time.Time{}
	if ttl > 0 {
		expiration = now.Add(ttl)
	} else if ttl == 0 && c.defaultTTL > 0 {
		expiration = now.Add(c.defaultTTL)
	}

	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evict(now)
	}

	c.items[key] = memoryItem[V]{
		value:      value,
		expiration: expiration,
		accessed:   now,
	}
	return nil
}

// evict drops expired entries first, then the least recently accessed one.
// Caller holds c.mu.
func (c *memoryCache[V]) evict(now time.Time) {
	for k, item := range c.items {
		if c.expired(item, now) {
			delete(c.items, k)
		}
	}
	if len(c.items) < c.maxEntries {
		return
	}

	var (
		oldestKey string
		oldest    time.Time
		first     = true
	)
	for k, item := range c.items {
		if first || item.accessed.Before(oldest) {
			oldestKey, oldest, first = k, item.accessed, false
		}
	}
	if !first {
		delete(c.items, oldestKey)
		c.stats.Evictions++
	}
}

// Delete removes a value from the cache.
//
// Delete 从缓存中删除值。
func (c *memoryCache[V]) Delete(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, pderrors.ErrClosed
	}
	if _, exists := c.items[key]; !exists {
		return false, nil
	}
	delete(c.items, key)
	return true, nil
}

// Keys lists the keys of all unexpired entries.
//
// Keys 列出所有未过期条目的键。
func (c *memoryCache[V]) Keys(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, pderrors.ErrClosed
	}
	now := c.now()
	keys := make([]string, 0, len(c.items))
	for k, item := range c.items {
		if !c.expired(item, now) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Clear removes all values from the cache.
//
// Clear 删除缓存中的所有值。
func (c *memoryCache[V]) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return pderrors.ErrClosed
	}
	c.items = make(map[string]memoryItem[V])
	return nil
}

// Stats returns statistics about the cache.
//
// Stats 返回有关缓存的统计信息。
func (c *memoryCache[V]) Stats(ctx context.Context) (*Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	statsCopy := c.stats
	statsCopy.EntryCount = int64(len(c.items))
	return &statsCopy, nil
}

// Close cleans up resources used by the cache.
//
// Close 清理缓存使用的资源。
func (c *memoryCache[V]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]memoryItem[V])
	c.closed = true
	return nil
}
