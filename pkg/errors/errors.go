// Package errors provides standardized error types for productdash.
// It defines common error values, typed wrappers and helper functions
// for error checking across the client, query cache and dashboard.
//
// Package errors 提供 productdash 的标准化错误类型。
// 它定义了常见错误值、类型化包装器以及用于客户端、查询缓存和仪表盘的错误检查辅助函数。
package errors

import (
	"errors"
	"fmt"
)

// Standard errors returned by productdash components.
//
// productdash 组件可能返回的标准错误。
var (
	// ErrNotFound is returned when a key or product does not exist.
	// 当键或产品不存在时返回ErrNotFound。
	ErrNotFound = errors.New("productdash: not found")

	// ErrInvalidKey is returned when an empty or malformed key is provided.
	// 当提供空键或格式错误的键时返回ErrInvalidKey。
	ErrInvalidKey = errors.New("productdash: invalid key")

	// ErrTransport is returned when the remote product service could not be reached.
	// 当无法访问远程产品服务时返回ErrTransport。
	ErrTransport = errors.New("productdash: transport failure")

	// ErrSerializationFailed is returned when value serialization fails.
	// 当值序列化失败时返回ErrSerializationFailed。
	ErrSerializationFailed = errors.New("productdash: serialization failed")

	// ErrDeserializationFailed is returned when value deserialization fails.
	// 当值反序列化失败时返回ErrDeserializationFailed。
	ErrDeserializationFailed = errors.New("productdash: deserialization failed")

	// ErrClosed is returned when an operation is performed on a closed cache.
	// 当对已关闭的缓存执行操作时返回ErrClosed。
	ErrClosed = errors.New("productdash: cache is closed")

	// ErrNoDialog is returned when a draft operation runs while no dialog is open.
	// 当没有打开对话框时执行草稿操作返回ErrNoDialog。
	ErrNoDialog = errors.New("productdash: no dialog open")

	// ErrPageOutOfRange is returned when a page index lies outside the known page range.
	// 当页码超出已知页面范围时返回ErrPageOutOfRange。
	ErrPageOutOfRange = errors.New("productdash: page index out of range")

	// ErrNoIdentifier is returned when an update or delete targets a product without an id.
	// 当更新或删除的目标产品没有ID时返回ErrNoIdentifier。
	ErrNoIdentifier = errors.New("productdash: product has no identifier")
)

// KeyError represents an error related to a specific cache key.
// It wraps an underlying error with the key that caused the error.
//
// KeyError 表示与特定缓存键相关的错误。
// 它用导致错误的键包装底层错误。
type KeyError struct {
	Key string // The key that caused the error / 导致错误的键
	Err error  // The underlying error / 底层错误
}

// Error returns the error message.
func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Err)
}

// Unwrap returns the underlying error.
// This allows errors.Is and errors.As to work with wrapped errors.
func (e *KeyError) Unwrap() error {
	return e.Err
}

// NewKeyError creates a new KeyError.
//
// NewKeyError 创建一个新的KeyError。
func NewKeyError(key string, err error) *KeyError {
	return &KeyError{Key: key, Err: err}
}

// StatusError is returned by the HTTP client when the remote service answers
// with a non-success status code.
//
// StatusError 在远程服务返回非成功状态码时由HTTP客户端返回。
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

// Error returns the error message.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// Is reports a 404 status as ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == 404
}

// IsNotFound returns true if the error is or wraps ErrNotFound.
//
// IsNotFound 如果错误是或包装了ErrNotFound，则返回true。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport returns true if the error is or wraps ErrTransport.
//
// IsTransport 如果错误是或包装了ErrTransport，则返回true。
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsClosed returns true if the error indicates that the cache is closed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsSerializationError returns true if the error is related to serialization.
//
// IsSerializationError 如果错误与序列化相关，则返回true。
func IsSerializationError(err error) bool {
	return errors.Is(err, ErrSerializationFailed) || errors.Is(err, ErrDeserializationFailed)
}

// StatusCode extracts the HTTP status code from err, or 0 if err carries none.
//
// StatusCode 从err中提取HTTP状态码，如果没有则返回0。
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Is is a re-export of the standard library errors.Is so callers that import
// this package under the name errors keep access to it.
func Is(err, target error) bool { return errors.Is(err, target) }

// As is a re-export of the standard library errors.As.
func As(err error, target any) bool { return errors.As(err, target) }

// New is a re-export of the standard library errors.New.
func New(text string) error { return errors.New(text) }
