package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Humphrey-He/productdash/pkg/codec"
	pderrors "github.com/Humphrey-He/productdash/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// redisCache stores encoded values in redis under a key prefix.
//
// redisCache 在redis中以键前缀存储编码后的值。
type redisCache[V any] struct {
	client     *redis.Client
	prefix     string
	codec      codec.Codec
	defaultTTL time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedis wraps an existing redis client. The cache owns the client and
// closes it on Close.
//
// NewRedis 包装现有的redis客户端。缓存拥有该客户端并在Close时关闭它。
func NewRedis[V any](client *redis.Client, config *Config) ICache[V] {
	if config == nil {
		config = NewDefaultConfig()
	}
	cd := config.Codec
	if cd == nil {
		cd = codec.DefaultCodec()
	}
	return &redisCache[V]{
		client:     client,
		prefix:     config.Prefix,
		codec:      cd,
		defaultTTL: config.DefaultTTL,
	}
}

func (c *redisCache[V]) fullKey(key string) string {
	return c.prefix + key
}

// Get retrieves and decodes a value.
//
// Get 检索并解码值。
func (c *redisCache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.misses.Add(1)
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("cache get error: %w", err)
	}

	var value V
	if err := c.codec.Unmarshal(data, &value); err != nil {
		return zero, false, pderrors.NewKeyError(key, err)
	}
	c.hits.Add(1)
	return value, true, nil
}

// Set encodes and stores a value. ttl follows the ICache contract.
//
// Set 编码并存储值。ttl遵循ICache约定。
func (c *redisCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	if key == "" {
		return pderrors.ErrInvalidKey
	}

	data, err := c.codec.Marshal(value)
	if err != nil {
		return pderrors.NewKeyError(key, err)
	}

	// redis treats 0 as "no expiry"
	expiry := time.Duration(0)
	if ttl > 0 {
		expiry = ttl
	} else if ttl == 0 && c.defaultTTL > 0 {
		expiry = c.defaultTTL
	}

	if err := c.client.Set(ctx, c.fullKey(key), data, expiry).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// Delete removes a value.
func (c *redisCache[V]) Delete(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Del(ctx, c.fullKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("cache delete error: %w", err)
	}
	return n > 0, nil
}

// scan walks every key under the prefix.
func (c *redisCache[V]) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan error: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Keys lists keys under the prefix, with the prefix stripped.
//
// Keys 列出前缀下的键（去除前缀）。
func (c *redisCache[V]) Keys(ctx context.Context) ([]string, error) {
	var out []string
	err := c.scan(ctx, func(keys []string) error {
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, c.prefix))
		}
		return nil
	})
	return out, err
}

// Clear deletes every key under the prefix.
//
// Clear 删除前缀下的所有键。
func (c *redisCache[V]) Clear(ctx context.Context) error {
	return c.scan(ctx, func(keys []string) error {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("cache delete error: %w", err)
		}
		return nil
	})
}

// Stats reports hit/miss counters of this process and the number of keys under the prefix.
func (c *redisCache[V]) Stats(ctx context.Context) (*Stats, error) {
	keys, err := c.Keys(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		EntryCount: int64(len(keys)),
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
	}, nil
}

// Close closes the redis client.
func (c *redisCache[V]) Close() error {
	return c.client.Close()
}
