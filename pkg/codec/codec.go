// Package codec provides the serialization layer shared by the product service
// client (request and response bodies) and the redis page store (cached pages).
//
// Package codec 提供产品服务客户端（请求和响应体）与redis页面存储（缓存页面）共用的序列化层。
package codec

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"

	pderrors "github.com/Humphrey-He/productdash/pkg/errors"
)

// Codec defines the interface for encoding and decoding values.
//
// Codec 定义了编码和解码值的接口。
type Codec interface {
	// Marshal serializes a value into bytes.
	//
	// Marshal 将值序列化为字节。
	Marshal(value interface{}) ([]byte, error)

	// Unmarshal deserializes bytes into a value.
	// The value parameter should be a pointer to the target type.
	//
	// Unmarshal 将字节反序列化为值。
	// value参数应该是目标类型的指针。
	Unmarshal(data []byte, value interface{}) error

	// Decode reads one value from r.
	Decode(r io.Reader, value interface{}) error

	// ContentType is the MIME type written on outgoing HTTP bodies.
	ContentType() string

	// Name returns the name of this codec.
	Name() string
}

// JSONCodec implements Codec using JSON serialization.
//
// JSONCodec 使用JSON序列化实现Codec。
type JSONCodec struct {
	// Pretty determines whether to use indented JSON encoding.
	//
	// Pretty 决定是否使用缩进的JSON编码。
	Pretty bool
}

// Marshal serializes a value into JSON bytes.
//
// Marshal 将值序列化为JSON字节。
//
// Parameters:
//   - value: The value to serialize to JSON
//
// Returns:
//   - []byte: The JSON bytes
//   - error: An error wrapping ErrSerializationFailed
func (c *JSONCodec) Marshal(value interface{}) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if c.Pretty {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pderrors.ErrSerializationFailed, err)
	}
	return data, nil
}

// Unmarshal deserializes JSON bytes into a value.
//
// Unmarshal 将JSON字节反序列化为值。
func (c *JSONCodec) Unmarshal(data []byte, value interface{}) error {
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("%w: %v", pderrors.ErrDeserializationFailed, err)
	}
	return nil
}

// Decode reads a single JSON document from r.
//
// Decode 从r读取单个JSON文档。
func (c *JSONCodec) Decode(r io.Reader, value interface{}) error {
	if err := json.NewDecoder(r).Decode(value); err != nil {
		return fmt.Errorf("%w: %v", pderrors.ErrDeserializationFailed, err)
	}
	return nil
}

// ContentType returns "application/json".
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Name returns "json".
func (c *JSONCodec) Name() string {
	return "json"
}

// NewJSONCodec creates a new JSONCodec.
//
// NewJSONCodec 创建一个新的JSONCodec。
func NewJSONCodec(pretty bool) *JSONCodec {
	return &JSONCodec{Pretty: pretty}
}

// GobCodec implements Codec using Gob serialization.
// It is only meaningful between Go processes, e.g. several dashboards sharing
// one redis page store.
//
// GobCodec 使用Gob序列化实现Codec。
// 仅在Go进程之间有意义，例如多个仪表盘共享一个redis页面存储。
type GobCodec struct{}

// Marshal serializes a value into Gob bytes.
func (c *GobCodec) Marshal(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return nil, fmt.Errorf("%w: %v", pderrors.ErrSerializationFailed, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes Gob bytes into a value.
func (c *GobCodec) Unmarshal(data []byte, value interface{}) error {
	return c.Decode(bytes.NewReader(data), value)
}

// Decode reads one Gob value from r.
func (c *GobCodec) Decode(r io.Reader, value interface{}) error {
	if err := gob.NewDecoder(r).Decode(value); err != nil {
		return fmt.Errorf("%w: %v", pderrors.ErrDeserializationFailed, err)
	}
	return nil
}

// ContentType returns the gob MIME type.
func (c *GobCodec) ContentType() string {
	return "application/x-gob"
}

// Name returns "gob".
func (c *GobCodec) Name() string {
	return "gob"
}

// NewGobCodec creates a new GobCodec.
func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

// DefaultCodec returns the default codec (JSON).
//
// DefaultCodec 返回默认编解码器（JSON）。
func DefaultCodec() Codec {
	return NewJSONCodec(false)
}

// GetCodec returns a codec by name.
// Supported names: "json", "gob".
//
// GetCodec 通过名称返回编解码器。
// 支持的名称："json"、"gob"。
func GetCodec(name string) (Codec, error) {
	switch name {
	case "json", "":
		return NewJSONCodec(false), nil
	case "gob":
		return NewGobCodec(), nil
	default:
		return nil, fmt.Errorf("unknown codec: %s", name)
	}
}
