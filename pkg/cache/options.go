package cache

import (
	"fmt"
	"time"

	"github.com/Humphrey-He/productdash/pkg/codec"
	"github.com/redis/go-redis/v9"
)

// Option is a function that configures a Config.
//
// Option 是一个配置Config的函数。
type Option func(*Config)

// WithMaxEntryCount sets the maximum number of entries in the memory store.
//
// WithMaxEntryCount 设置内存存储中的最大条目数。
func WithMaxEntryCount(count int) Option {
	return func(c *Config) {
		c.MaxEntries = count
	}
}

// WithTTL sets the default time-to-live for cache entries.
//
// WithTTL 设置缓存条目的默认生存时间。
func WithTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.DefaultTTL = ttl
	}
}

// WithBackend selects "memory" or "redis".
func WithBackend(backend string) Option {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithRedis selects the redis backend at addr with the given key prefix.
//
// WithRedis 选择位于addr的redis后端，并使用给定的键前缀。
func WithRedis(addr, prefix string) Option {
	return func(c *Config) {
		c.Backend = BackendRedis
		c.RedisAddr = addr
		c.Prefix = prefix
	}
}

// WithCodec sets the serialization codec for the redis backend.
//
// WithCodec 设置redis后端的序列化编解码器。
func WithCodec(cd codec.Codec) Option {
	return func(c *Config) {
		c.Codec = cd
	}
}

// NewWithOptions creates a new cache with the given options.
//
// NewWithOptions 使用给定选项创建新的缓存。
//
// Parameters:
//   - name: The name of the cache
//   - options: A list of configuration options
//
// Returns:
//   - ICache[V]: The created cache instance
//   - error: An error if the configuration is invalid
func NewWithOptions[V any](name string, options ...Option) (ICache[V], error) {
	config := NewDefaultConfig()
	config.Name = name

	for _, option := range options {
		option(config)
	}

	return New[V](config)
}

// New creates a cache instance from config. A nil config uses the defaults.
//
// New 根据config创建缓存实例。config为nil时使用默认值。
func New[V any](config *Config) (ICache[V], error) {
	if config == nil {
		config = NewDefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}

	switch config.Backend {
	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		return NewRedis[V](client, config), nil
	default:
		return NewMemory[V](config), nil
	}
}
