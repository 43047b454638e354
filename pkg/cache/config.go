package cache

import (
	"fmt"
	"time"

	"github.com/Humphrey-He/productdash/pkg/codec"
)

// Backend names accepted by Config.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config defines the configuration options for a cache instance.
//
// Config 定义缓存实例的配置选项。
type Config struct {
	// Name of the cache instance, used for metrics and logging
	// 缓存实例的名称，用于指标收集和日志记录
	Name string `json:"name" yaml:"name"`

	// Backend selects the store implementation: "memory" or "redis"
	// Backend 选择存储实现："memory" 或 "redis"
	Backend string `json:"backend" yaml:"backend"`

	// MaxEntries is the maximum number of entries the memory store can hold (0 = unlimited)
	// MaxEntries 是内存存储可以容纳的最大条目数（0 = 无限制）
	MaxEntries int `json:"max_entries" yaml:"max_entries"`

	// DefaultTTL is the default time-to-live for cache entries (0 = no expiry)
	// DefaultTTL 是缓存条目的默认生存时间（0 = 不过期）
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl"`

	// RedisAddr is the redis server address when Backend is "redis"
	// RedisAddr 是Backend为"redis"时的redis服务器地址
	RedisAddr string `json:"redis_addr" yaml:"redis_addr"`

	// Prefix namespaces redis keys
	// Prefix 为redis键添加命名空间
	Prefix string `json:"prefix" yaml:"prefix"`

	// Codec serializes values for the redis backend
	// Codec 为redis后端序列化值
	Codec codec.Codec `json:"-" yaml:"-"`
}

// NewDefaultConfig creates a new configuration with default values.
//
// NewDefaultConfig 创建具有默认值的新配置。
func NewDefaultConfig() *Config {
	return &Config{
		Name:       "productdash",
		Backend:    BackendMemory,
		MaxEntries: 1000,
		DefaultTTL: 0,
		RedisAddr:  "localhost:6379",
		Prefix:     "productdash:",
		Codec:      codec.DefaultCodec(),
	}
}

// Validate checks if the configuration is valid.
//
// Validate 检查配置是否有效。
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("cache name cannot be empty")
	}
	if c.MaxEntries < 0 {
		return fmt.Errorf("max entries must be non-negative")
	}
	switch c.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis address must be set for the redis backend")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s", c.Backend)
	}
	return nil
}
