// Package querycache deduplicates and retains keyed fetches of remote pages.
// At most one load runs per key and generation; invalidation bumps the
// generation and marks cached values stale so the next access refetches.
//
// Package querycache 对远程分页请求进行去重和缓存。每个键和代次最多只有一个
// 加载在运行；失效会递增代次并将缓存值标记为过期，下次访问时重新获取。
package querycache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Humphrey-He/productdash/pkg/cache"
	"github.com/Humphrey-He/productdash/pkg/loader"
	"golang.org/x/sync/singleflight"
)

// Status is the read-path state of one key.
//
// Status 是单个键的读取状态。
type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusResolved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFetching:
		return "fetching"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Key is a request signature: the resource and the page offset.
//
// Key 是请求签名：资源名和分页偏移量。
type Key struct {
	Resource string
	Offset   int
}

// String returns the store key, e.g. "products:offset=10".
func (k Key) String() string {
	return k.Resource + ":offset=" + strconv.Itoa(k.Offset)
}

// Result is a non-blocking view of a key.
//
// Result 是键的非阻塞视图。
type Result[V any] struct {
	Status   Status
	Value    V
	HasValue bool
	// Stale is set when Value predates the latest invalidation.
	Stale bool
	Err   error
}

// Stats counts query cache activity.
//
// Stats 统计查询缓存活动。
type Stats struct {
	Fetches       int64 `json:"fetches"`
	Joins         int64 `json:"joins"`
	Hits          int64 `json:"hits"`
	Failures      int64 `json:"failures"`
	Invalidations int64 `json:"invalidations"`
}

type entry struct {
	status Status
	gen    uint64
	stale  bool
	err    error

	// resolvedGen is the generation of the value in the store
	resolvedGen uint64

	inflight  bool
	flightGen uint64
	flightSeq uint64

	// write orders store writes for the key
	write sync.Mutex
}

// current reports whether a load for the entry's generation is running.
func (e *entry) current() bool {
	return e.inflight && e.flightGen == e.gen
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	ttl    time.Duration
	logger *slog.Logger
}

// WithTTL sets the TTL applied when a loader returns zero.
//
// WithTTL 设置加载器返回零TTL时使用的TTL。
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Cache is a keyed query cache over an ICache value store.
//
// Cache 是构建在ICache值存储之上的键控查询缓存。
type Cache[V any] struct {
	store  cache.ICache[V]
	group  singleflight.Group
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	entries map[Key]*entry

	fetches       atomic.Int64
	joins         atomic.Int64
	hits          atomic.Int64
	failures      atomic.Int64
	invalidations atomic.Int64
}

// New creates a query cache that keeps values in store.
//
// New 创建一个将值保存在store中的查询缓存。
//
// Parameters:
//   - store: The value store, memory or redis
//   - opts: Optional settings
//
// Returns:
//   - *Cache[V]: The query cache
func New[V any](store cache.ICache[V], opts ...Option) *Cache[V] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		store:   store,
		ttl:     o.ttl,
		logger:  o.logger.With("component", "querycache"),
		entries: make(map[Key]*entry),
	}
}

// entryLocked returns the entry for key, creating an idle one. Caller holds c.mu.
func (c *Cache[V]) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// flightKey names one launch. The sequence keeps a retry from joining a
// finished flight that singleflight has not forgotten yet.
func (c *Cache[V]) flightKey(key Key, gen, seq uint64) string {
	return key.String() + "#" + strconv.FormatUint(gen, 10) + "." + strconv.FormatUint(seq, 10)
}

// fresh returns the stored value when the key is resolved and not stale.
func (c *Cache[V]) fresh(ctx context.Context, key Key) (V, bool) {
	var zero V

	c.mu.Lock()
	e, ok := c.entries[key]
	usable := ok && e.status == StatusResolved && !e.stale
	c.mu.Unlock()
	if !usable {
		return zero, false
	}

	v, found, err := c.store.Get(ctx, key.String())
	if err != nil {
		c.logger.Warn("store read failed", "key", key.String(), "error", err)
		return zero, false
	}
	return v, found
}

// launchLocked joins the running load for the entry's generation or starts
// one. Caller holds c.mu, so a load cannot settle between the state check
// and the singleflight registration.
func (c *Cache[V]) launchLocked(ctx context.Context, key Key, e *entry, l loader.Loader[V]) <-chan singleflight.Result {
	gen := e.gen
	if e.current() {
		c.joins.Add(1)
	} else {
		e.inflight = true
		e.flightGen = gen
		e.flightSeq++
		e.status = StatusFetching
		e.err = nil
	}
	seq := e.flightSeq

	// the load outlives callers that stop waiting
	flightCtx := context.WithoutCancel(ctx)
	return c.group.DoChan(c.flightKey(key, gen, seq), func() (any, error) {
		c.fetches.Add(1)
		v, ttl, err := l.Load(flightCtx, key.String())
		c.settle(flightCtx, key, gen, seq, v, ttl, err)
		return v, err
	})
}

// settle records the outcome of launch seq, started at generation gen. A
// value older than the one already stored is dropped.
func (c *Cache[V]) settle(ctx context.Context, key Key, gen, seq uint64, v V, ttl time.Duration, loadErr error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	c.mu.Unlock()

	superseded := false
	if loadErr == nil {
		e.write.Lock()
		defer e.write.Unlock()

		c.mu.Lock()
		superseded = gen < e.resolvedGen
		if !superseded {
			e.resolvedGen = gen
		}
		c.mu.Unlock()

		if !superseded {
			if ttl == 0 {
				ttl = c.ttl
			}
			if err := c.store.Set(ctx, key.String(), v, ttl); err != nil {
				c.logger.Warn("store write failed", "key", key.String(), "error", err)
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e.inflight && e.flightSeq == seq {
		e.inflight = false
	}

	if loadErr != nil {
		c.failures.Add(1)
		c.logger.Debug("load failed", "key", key.String(), "gen", gen, "error", loadErr)
		// a failure of an older generation leaves the newer state alone
		switch {
		case gen == e.gen && !e.current():
			e.status = StatusFailed
			e.err = loadErr
		case e.status == StatusFetching && !e.current():
			e.status = StatusIdle
		}
		return
	}

	if superseded || gen < e.resolvedGen {
		c.logger.Debug("load superseded", "key", key.String(), "gen", gen, "stored", e.resolvedGen)
		if e.status == StatusFetching && !e.current() {
			e.status = StatusIdle
		}
		return
	}
	if e.current() {
		// a newer load is running; keep reporting it
		e.stale = true
		return
	}
	e.status = StatusResolved
	e.err = nil
	e.stale = gen != e.gen
	if e.stale {
		c.logger.Debug("load resolved after invalidation", "key", key.String(), "gen", gen, "current", e.gen)
	}
}

// Fetch returns the value for key, loading it unless a fresh value is cached.
// Concurrent calls for one key share one load. An explicit Fetch retries a
// failed key. A caller whose ctx ends stops waiting; the load continues.
//
// Fetch 返回key对应的值，除非已缓存新鲜值，否则加载。同一键的并发调用共享一次加载。
//
// Parameters:
//   - ctx: Context for waiting
//   - key: The request signature
//   - l: Loader invoked on a miss
//
// Returns:
//   - V: The loaded or cached value
//   - error: The load error or ctx.Err()
func (c *Cache[V]) Fetch(ctx context.Context, key Key, l loader.Loader[V]) (V, error) {
	var zero V

	for attempt := 0; ; attempt++ {
		if v, ok := c.fresh(ctx, key); ok {
			c.hits.Add(1)
			return v, nil
		}

		c.mu.Lock()
		e := c.entryLocked(key)
		if attempt == 0 && e.status == StatusResolved && !e.stale {
			// resolved since the fresh check
			c.mu.Unlock()
			continue
		}
		ch := c.launchLocked(ctx, key, e, l)
		c.mu.Unlock()

		select {
		case res := <-ch:
			if res.Err != nil {
				return zero, res.Err
			}
			v, _ := res.Val.(V)
			return v, nil
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Get returns what is known about key without blocking on the network.
// Idle, stale and expired keys get a background load. A failed key is
// left alone until Invalidate or Fetch.
//
// Get 在不阻塞网络的情况下返回键的已知信息。空闲、过期的键会启动后台加载；
// 失败的键在Invalidate或Fetch之前保持不变。
func (c *Cache[V]) Get(ctx context.Context, key Key, l loader.Loader[V]) Result[V] {
	res := c.Peek(ctx, key)

	needLoad := false
	switch res.Status {
	case StatusIdle:
		needLoad = true
	case StatusResolved:
		needLoad = res.Stale || !res.HasValue
	case StatusFetching:
		c.mu.Lock()
		needLoad = !c.entryLocked(key).current()
		c.mu.Unlock()
	}
	if !needLoad {
		if res.Status == StatusResolved {
			c.hits.Add(1)
		}
		return res
	}

	c.mu.Lock()
	e := c.entryLocked(key)
	if e.status == StatusFailed && !e.current() {
		// failed while we looked
		res.Status, res.Err = StatusFailed, e.err
		c.mu.Unlock()
		return res
	}
	// the result channel is buffered; nobody needs to drain it
	_ = c.launchLocked(ctx, key, e, l)
	c.mu.Unlock()

	res.Status = StatusFetching
	res.Err = nil
	return res
}

// Peek returns the state of key with no side effects.
//
// Peek 返回键的状态，不产生副作用。
func (c *Cache[V]) Peek(ctx context.Context, key Key) Result[V] {
	c.mu.Lock()
	var res Result[V]
	if e, ok := c.entries[key]; ok {
		res.Status = e.status
		res.Stale = e.stale
		res.Err = e.err
	}
	c.mu.Unlock()

	v, found, err := c.store.Get(ctx, key.String())
	if err != nil {
		c.logger.Warn("store read failed", "key", key.String(), "error", err)
		return res
	}
	if found {
		res.Value, res.HasValue = v, true
		if res.Status == StatusIdle {
			// left by an earlier process or a flushed entry table
			res.Stale = true
		}
	}
	return res
}

// Invalidate marks every known key matching pred stale and returns how many
// matched. Failed keys return to idle. Running loads keep going but their
// results are stored stale.
//
// Invalidate 将所有匹配pred的已知键标记为过期并返回匹配数量。
func (c *Cache[V]) Invalidate(ctx context.Context, pred func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if !pred(key) {
			continue
		}
		n++
		e.gen++
		switch e.status {
		case StatusFailed:
			e.status = StatusIdle
			e.err = nil
		case StatusResolved, StatusFetching:
			e.stale = true
		}
	}
	c.invalidations.Add(int64(n))
	c.logger.Debug("invalidated", "keys", n)
	return n
}

// Forget drops every known key matching pred: its stored value is deleted and
// the key returns to idle. Loads still running for it are discarded. It
// returns how many keys matched.
//
// Forget 删除所有匹配pred的已知键：删除其存储值并使键回到空闲状态。
// 仍在运行的加载结果将被丢弃。返回匹配的键数量。
func (c *Cache[V]) Forget(ctx context.Context, pred func(Key) bool) int {
	c.mu.Lock()
	var (
		matched []Key
		dropped []*entry
	)
	for key, e := range c.entries {
		if !pred(key) {
			continue
		}
		matched = append(matched, key)
		dropped = append(dropped, e)
		e.gen++
		e.resolvedGen = e.gen
		e.status = StatusIdle
		e.stale = false
		e.err = nil
	}
	c.mu.Unlock()

	for i, key := range matched {
		e := dropped[i]
		e.write.Lock()
		if _, err := c.store.Delete(ctx, key.String()); err != nil {
			c.logger.Warn("store delete failed", "key", key.String(), "error", err)
		}
		e.write.Unlock()
	}
	if len(matched) > 0 {
		c.logger.Debug("forgot", "keys", len(matched))
	}
	return len(matched)
}

// InvalidateResource invalidates every page of resource.
//
// InvalidateResource 使resource的所有分页失效。
func (c *Cache[V]) InvalidateResource(ctx context.Context, resource string) int {
	return c.Invalidate(ctx, func(k Key) bool { return k.Resource == resource })
}

// Stats returns a snapshot of the counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Fetches:       c.fetches.Load(),
		Joins:         c.joins.Load(),
		Hits:          c.hits.Load(),
		Failures:      c.failures.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

// Close closes the underlying store.
func (c *Cache[V]) Close() error {
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("close query cache store: %w", err)
	}
	return nil
}
