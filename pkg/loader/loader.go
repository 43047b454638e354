// Package loader defines how the query cache reaches its data source when a
// key has no usable value.
//
// Package loader 定义查询缓存在键没有可用值时如何访问数据源。
package loader

import (
	"context"
	"time"
)

// Loader is the interface that wraps the basic Load method.
//
// Load retrieves data for the given key from a data source.
// It returns the loaded value, a TTL for the cache entry, and any error encountered.
// If the returned TTL is zero, the cache's default TTL will be used.
//
// Loader 是包装基本Load方法的接口。
//
// Load 从数据源检索给定键的数据。
// 它返回加载的值、缓存条目的TTL以及遇到的任何错误。
// 如果返回的TTL为零，将使用缓存的默认TTL。
type Loader[T any] interface {
	Load(ctx context.Context, key string) (value T, ttl time.Duration, err error)
}

// LoaderFunc is a function type that implements the Loader interface.
//
// LoaderFunc 是实现Loader接口的函数类型。
type LoaderFunc[T any] func(ctx context.Context, key string) (T, time.Duration, error)

// Load calls the function itself.
//
// Load 调用函数本身。
func (f LoaderFunc[T]) Load(ctx context.Context, key string) (T, time.Duration, error) {
	return f(ctx, key)
}

// NewFunctionLoader creates a Loader from a function that ignores TTL.
// Values it loads use the cache's default TTL.
//
// NewFunctionLoader 从不关心TTL的函数创建Loader，加载的值使用缓存的默认TTL。
func NewFunctionLoader[T any](fn func(ctx context.Context, key string) (T, error)) Loader[T] {
	return LoaderFunc[T](func(ctx context.Context, key string) (T, time.Duration, error) {
		value, err := fn(ctx, key)
		return value, 0, err
	})
}

// Counting wraps a loader and reports every invocation to observe.
// The dashboard uses it to count remote calls.
//
// Counting 包装加载器，并在每次调用时通知observe。
func Counting[T any](next Loader[T], observe func(key string, err error)) Loader[T] {
	return LoaderFunc[T](func(ctx context.Context, key string) (T, time.Duration, error) {
		value, ttl, err := next.Load(ctx, key)
		if observe != nil {
			observe(key, err)
		}
		return value, ttl, err
	})
}
