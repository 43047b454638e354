// Package client talks to the remote product resource.
//
// Package client 与远程产品资源通信。
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Humphrey-He/productdash/pkg/codec"
	pderrors "github.com/Humphrey-He/productdash/pkg/errors"
	"github.com/Humphrey-He/productdash/pkg/model"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-call request id.
const RequestIDHeader = "X-Request-ID"

// DefaultResource is the resource name used when none is configured.
const DefaultResource = "products"

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 1024

// ProductService is the remote product resource consumed by the dashboard.
// Every call is at-most-once; nothing is retried.
//
// ProductService 是仪表盘使用的远程产品资源。每次调用最多执行一次，不重试。
type ProductService interface {
	// List returns up to limit products starting at offset, with the total count.
	List(ctx context.Context, offset, limit int) (model.ProductPage, error)
	// Create sends a new record and returns it with its assigned identifier.
	Create(ctx context.Context, draft model.Draft) (model.Product, error)
	// Update replaces the fields of product id and returns the updated record.
	Update(ctx context.Context, id int, draft model.Draft) (model.Product, error)
	// Delete removes product id.
	Delete(ctx context.Context, id int) error
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithResource sets the resource path segment, "products" by default.
func WithResource(resource string) Option {
	return func(c *HTTPClient) {
		if resource != "" {
			c.resource = resource
		}
	}
}

// WithDelay adds an artificial delay before every call so loading states stay visible.
//
// WithDelay 在每次调用前添加人为延迟，使加载状态可见。
func WithDelay(d time.Duration) Option {
	return func(c *HTTPClient) { c.delay = d }
}

// WithTimeout bounds each call. Zero leaves calls unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCodec sets the body codec, JSON by default.
func WithCodec(cd codec.Codec) Option {
	return func(c *HTTPClient) {
		if cd != nil {
			c.codec = cd
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// HTTPClient implements ProductService over a DummyJSON-style REST resource:
//
//	GET    {base}/{resource}?limit=&skip=
//	POST   {base}/{resource}/add
//	PUT    {base}/{resource}/{id}
//	DELETE {base}/{resource}/{id}
//
// HTTPClient 基于DummyJSON风格的REST资源实现ProductService。
type HTTPClient struct {
	base     string
	resource string
	delay    time.Duration
	http     *http.Client
	codec    codec.Codec
	logger   *slog.Logger
}

// NewHTTPClient creates a client for the service at baseURL.
//
// NewHTTPClient 为baseURL处的服务创建客户端。
//
// Parameters:
//   - baseURL: Service root, e.g. https://dummyjson.com
//   - opts: Optional settings
//
// Returns:
//   - *HTTPClient: The client
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		base:     strings.TrimRight(baseURL, "/"),
		resource: DefaultResource,
		http:     &http.Client{},
		codec:    codec.DefaultCodec(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "client")
	return c
}

// Resource returns the configured resource name.
func (c *HTTPClient) Resource() string {
	return c.resource
}

// List implements ProductService.
func (c *HTTPClient) List(ctx context.Context, offset, limit int) (model.ProductPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(offset))

	var page model.ProductPage
	if err := c.do(ctx, http.MethodGet, "/"+c.resource, q, nil, &page); err != nil {
		return model.ProductPage{}, err
	}
	return page, nil
}

// Create implements ProductService.
func (c *HTTPClient) Create(ctx context.Context, draft model.Draft) (model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodPost, "/"+c.resource+"/add", nil, draft, &p); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// Update implements ProductService.
func (c *HTTPClient) Update(ctx context.Context, id int, draft model.Draft) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, pderrors.ErrNoIdentifier
	}
	var p model.Product
	if err := c.do(ctx, http.MethodPut, c.itemPath(id), nil, draft, &p); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// Delete implements ProductService.
func (c *HTTPClient) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return pderrors.ErrNoIdentifier
	}
	return c.do(ctx, http.MethodDelete, c.itemPath(id), nil, nil, nil)
}

func (c *HTTPClient) itemPath(id int) string {
	return "/" + c.resource + "/" + strconv.Itoa(id)
}

func (c *HTTPClient) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// do performs one request. A non-2xx answer becomes *errors.StatusError and a
// failure to get any answer wraps errors.ErrTransport.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := c.codec.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", c.codec.ContentType())
	if body != nil {
		req.Header.Set("Content-Type", c.codec.ContentType())
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "url", target, "request_id", requestID, "error", err)
		return fmt.Errorf("%w: %s %s: %v", pderrors.ErrTransport, method, target, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request done",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"request_id", requestID,
		"latency", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &pderrors.StatusError{
			Method: method,
			URL:    target,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := c.codec.Decode(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}
	return nil
}
