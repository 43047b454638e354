// Package cache provides the backing stores for fetched product pages.
// Two implementations share one interface: a thread-safe in-memory store and a
// redis store that lets several dashboard processes share cached pages.
//
// Package cache 提供已获取产品页面的后备存储。
// 两种实现共享同一接口：线程安全的内存存储，以及允许多个仪表盘进程共享缓存页面的redis存储。
package cache

import (
	"context"
	"time"
)

// ICache defines the interface for a typed key/value store with expiry.
// All methods are thread-safe and can be called concurrently.
//
// ICache 定义带过期时间的类型化键值存储接口。
// 所有方法都是线程安全的，可以并发调用。
type ICache[V any] interface {
	// Get retrieves a value from the cache.
	// If the key is not found or has expired, (zero, false, nil) is returned.
	//
	// Get 从缓存中检索值。
	// 如果未找到键或键已过期，则返回 (零值, false, nil)。
	//
	// Parameters:
	//   - ctx: Context for the operation, can be used for cancellation
	//   - key: The key to retrieve
	//
	// Returns:
	//   - V: The cached value if found
	//   - bool: True if the key was found and is valid
	//   - error: Error if the retrieval operation failed
	Get(ctx context.Context, key string) (V, bool, error)

	// Set adds a value to the cache with the specified TTL.
	// If ttl is 0, the default TTL from the configuration is used.
	// If ttl is negative, the entry does not expire.
	//
	// Set 将值添加到缓存中，并指定TTL。
	// 如果ttl为0，则使用配置中的默认TTL。
	// 如果ttl为负数，则条目不会过期。
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Delete removes a value from the cache.
	// Returns true if the key was found and removed.
	//
	// Delete 从缓存中删除值。
	// 如果找到并删除了键，则返回true。
	Delete(ctx context.Context, key string) (bool, error)

	// Keys lists the live keys, without any backend prefix.
	//
	// Keys 列出所有有效键（不含后端前缀）。
	Keys(ctx context.Context) ([]string, error)

	// Clear removes all values from the cache.
	//
	// Clear 删除缓存中的所有值。
	Clear(ctx context.Context) error

	// Stats returns statistics about the cache.
	//
	// Stats 返回有关缓存的统计信息。
	Stats(ctx context.Context) (*Stats, error)

	// Close cleans up resources used by the cache.
	// After calling Close, the cache should not be used anymore.
	//
	// Close 清理缓存使用的资源。
	// 调用Close后，不应再使用缓存。
	Close() error
}

// Stats represents cache statistics.
//
// Stats 表示缓存统计信息。
type Stats struct {
	// EntryCount is the current number of entries in the cache
	// EntryCount 是缓存中当前的条目数量
	EntryCount int64 `json:"entry_count"`

	// Hits is the number of successful cache retrievals
	// Hits 是成功的缓存检索次数
	Hits int64 `json:"hits"`

	// Misses is the number of cache retrievals where the key was not found
	// Misses 是未找到键的缓存检索次数
	Misses int64 `json:"misses"`

	// Evictions is the number of entries removed due to capacity constraints
	// Evictions 是由于容量限制而删除的条目数
	Evictions int64 `json:"evictions"`
}

// HitRatio returns hits / (hits + misses), or 0 before any lookup.
func (s *Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
