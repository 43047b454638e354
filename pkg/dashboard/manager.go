// Package dashboard implements the product list state manager. It owns the
// pagination cursor, search/filter/sort criteria, the dialog and draft state,
// and coordinates page fetches through the query cache with create, update
// and delete calls against the remote product service.
//
// Package dashboard 实现产品列表状态管理器。它持有分页游标、搜索/过滤/排序条件、
// 对话框和草稿状态，并通过查询缓存协调页面获取与对远程产品服务的增删改调用。
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Humphrey-He/productdash/pkg/client"
	pderrors "github.com/Humphrey-He/productdash/pkg/errors"
	"github.com/Humphrey-He/productdash/pkg/loader"
	"github.com/Humphrey-He/productdash/pkg/model"
	"github.com/Humphrey-He/productdash/pkg/querycache"
	"github.com/Humphrey-He/productdash/pkg/view"
)

// PageSize is the number of products requested per page.
const PageSize = 10

// FailedMessage is what the user sees when a page cannot be loaded.
const FailedMessage = "failed to load products"

// Observer receives completed remote calls. Implementations must not block.
//
// Observer 接收已完成的远程调用通知。实现不得阻塞。
type Observer interface {
	// LoadDone is called once per underlying list call.
	LoadDone(key querycache.Key, err error)
	// MutationDone is called once per create, update or delete call sent.
	MutationDone(kind MutationKind, err error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithResource sets the resource name used in cache keys.
func WithResource(resource string) Option {
	return func(m *Manager) {
		if resource != "" {
			m.resource = resource
		}
	}
}

// WithPageSize overrides PageSize.
func WithPageSize(size int) Option {
	return func(m *Manager) {
		if size > 0 {
			m.pageSize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver registers an observer for remote calls.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// Manager is the product list state manager. All methods are safe for
// concurrent use; m.mu is never held across a remote call.
//
// Manager 是产品列表状态管理器。所有方法都可以并发使用；远程调用期间从不持有m.mu。
type Manager struct {
	svc      client.ProductService
	cache    *querycache.Cache[model.ProductPage]
	resource string
	pageSize int
	logger   *slog.Logger
	observer Observer

	mu        sync.Mutex
	criteria  model.ViewCriteria
	total     int
	hasTotal  bool
	dialog    Dialog
	pending   [mutationKinds]int
	lastError error
}

// New creates a manager.
//
// New 创建管理器。
//
// Parameters:
//   - svc: The remote product service
//   - cache: The query cache holding fetched pages
//   - opts: Optional settings
//
// Returns:
//   - *Manager: The manager, on page 0 sorted by title ascending
func New(svc client.ProductService, cache *querycache.Cache[model.ProductPage], opts ...Option) *Manager {
	m := &Manager{
		svc:      svc,
		cache:    cache,
		resource: client.DefaultResource,
		pageSize: PageSize,
		logger:   slog.Default(),
		criteria: model.DefaultCriteria(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "dashboard")
	return m
}

// Resource returns the resource name.
func (m *Manager) Resource() string {
	return m.resource
}

// PageSize returns the page size in use.
func (m *Manager) PageSize() int {
	return m.pageSize
}

// CacheStats returns the query cache counters.
func (m *Manager) CacheStats() querycache.Stats {
	return m.cache.Stats()
}

func (m *Manager) key(index int) querycache.Key {
	return querycache.Key{Resource: m.resource, Offset: view.Offset(index, m.pageSize)}
}

// pageLoader lists the page at the key's offset.
func (m *Manager) pageLoader(key querycache.Key) loader.Loader[model.ProductPage] {
	l := loader.NewFunctionLoader(func(ctx context.Context, _ string) (model.ProductPage, error) {
		page, err := m.svc.List(ctx, key.Offset, m.pageSize)
		if err != nil {
			return model.ProductPage{}, fmt.Errorf("list %s: %w", key, err)
		}
		return page, nil
	})
	return loader.Counting(l, func(_ string, err error) {
		if err != nil {
			m.logger.Warn("page load failed", "key", key.String(), "error", err)
		}
		if m.observer != nil {
			m.observer.LoadDone(key, err)
		}
	})
}

// totalPagesLocked is ceil(total/pageSize) of the last observed total. Caller holds m.mu.
func (m *Manager) totalPagesLocked() int {
	return view.TotalPages(m.total, m.pageSize)
}

// inRangeLocked reports whether index may be fetched. Before any total is
// known only page 0 is. Caller holds m.mu.
func (m *Manager) inRangeLocked(index int) bool {
	if index < 0 {
		return false
	}
	if !m.hasTotal {
		return index == 0
	}
	return index <= max(m.totalPagesLocked()-1, 0)
}

// observe records the total of a page value that belongs to the current page
// and clamps the page index to the new range. When the page count shrank,
// cached pages past the end are dropped.
func (m *Manager) observe(ctx context.Context, index int, page model.ProductPage) {
	m.mu.Lock()
	if index != m.criteria.Page {
		m.mu.Unlock()
		return
	}
	before := m.totalPagesLocked()
	m.total = page.Total
	m.hasTotal = true
	pages := m.totalPagesLocked()
	m.criteria.Page = view.ClampPage(m.criteria.Page, pages)
	m.mu.Unlock()

	if pages < before {
		end := view.Offset(max(pages, 1), m.pageSize)
		n := m.cache.Forget(ctx, func(k querycache.Key) bool {
			return k.Resource == m.resource && k.Offset >= end
		})
		m.logger.Debug("page range shrank", "pages", pages, "was", before, "dropped", n)
	}
}

// LoadPage returns page index, fetching it unless a fresh copy is cached.
// Concurrent calls for one index share one remote call. An index outside
// the known page range is rejected without a fetch.
//
// LoadPage 返回第index页，除非已缓存新鲜副本，否则获取。
// 同一页的并发调用共享一次远程调用。超出已知页面范围的页码不会触发获取。
//
// Parameters:
//   - ctx: Context for waiting
//   - index: Zero-based page index
//
// Returns:
//   - model.ProductPage: A copy of the page
//   - error: ErrPageOutOfRange, the load error, or ctx.Err()
func (m *Manager) LoadPage(ctx context.Context, index int) (model.ProductPage, error) {
	m.mu.Lock()
	ok := m.inRangeLocked(index)
	m.mu.Unlock()
	if !ok {
		return model.ProductPage{}, fmt.Errorf("page %d: %w", index, pderrors.ErrPageOutOfRange)
	}

	key := m.key(index)
	page, err := m.cache.Fetch(ctx, key, m.pageLoader(key))
	if err != nil {
		return model.ProductPage{}, err
	}
	m.observe(ctx, index, page)
	return page.Clone(), nil
}

// Load fetches the current page.
func (m *Manager) Load(ctx context.Context) (model.ProductPage, error) {
	return m.LoadPage(ctx, m.Criteria().Page)
}

// Refresh drops the cached copy of the current page and fetches it again.
// It is the explicit retry for a failed page.
//
// Refresh 丢弃当前页的缓存副本并重新获取，是失败页面的显式重试。
func (m *Manager) Refresh(ctx context.Context) (model.ProductPage, error) {
	key := m.key(m.Criteria().Page)
	m.cache.Invalidate(ctx, func(k querycache.Key) bool { return k == key })
	return m.Load(ctx)
}

// current returns the cached state of the current page and starts a
// background load when it is idle or stale. A value that moves the page
// index is followed to the clamped page once.
func (m *Manager) current(ctx context.Context) (model.ViewCriteria, querycache.Result[model.ProductPage]) {
	var (
		criteria model.ViewCriteria
		res      querycache.Result[model.ProductPage]
	)
	for range 2 {
		criteria = m.Criteria()
		key := m.key(criteria.Page)
		res = m.cache.Get(ctx, key, m.pageLoader(key))
		if !res.HasValue {
			break
		}
		m.observe(ctx, criteria.Page, res.Value)
		if m.Criteria().Page == criteria.Page {
			break
		}
	}
	return criteria, res
}

// Rows returns the displayed rows: the current page filtered and sorted.
//
// Rows 返回显示的行：经过过滤和排序的当前页。
func (m *Manager) Rows(ctx context.Context) []model.Product {
	criteria, res := m.current(ctx)
	return view.Derive(res.Value.Products, criteria)
}

// Categories lists the categories of the current page only.
//
// Categories 仅列出当前页的类别。
func (m *Manager) Categories(ctx context.Context) []string {
	_, res := m.current(ctx)
	return view.Categories(res.Value.Products)
}

// Criteria returns a copy of the view criteria.
func (m *Manager) Criteria() model.ViewCriteria {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.criteria
}

// Total returns the last observed total and whether one has been observed.
func (m *Manager) Total() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total, m.hasTotal
}

// TotalPages returns ceil(total/pageSize).
func (m *Manager) TotalPages() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalPagesLocked()
}

// HasPrev reports whether PrevPage would move.
func (m *Manager) HasPrev() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.criteria.Page > 0
}

// HasNext reports whether NextPage would move.
func (m *Manager) HasNext() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.criteria.Page+1 < m.totalPagesLocked()
}

// SetSearch sets the search text.
func (m *Manager) SetSearch(search string) {
	m.mu.Lock()
	m.criteria.Search = search
	m.mu.Unlock()
}

// SetCategory sets the category filter; "" clears it.
func (m *Manager) SetCategory(category string) {
	m.mu.Lock()
	m.criteria.Category = category
	m.mu.Unlock()
}

// SetSort sets the sort field and direction.
func (m *Manager) SetSort(field model.SortField, dir model.SortDirection) {
	m.mu.Lock()
	m.criteria.SortField = field
	m.criteria.SortDir = dir
	m.mu.Unlock()
}

// ToggleSort flips the direction when field is already the sort field,
// otherwise sorts ascending by field.
//
// ToggleSort 当field已是排序字段时翻转方向，否则按field升序排序。
func (m *Manager) ToggleSort(field model.SortField) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.criteria.SortField == field {
		m.criteria.SortDir = m.criteria.SortDir.Reverse()
		return
	}
	m.criteria.SortField = field
	m.criteria.SortDir = model.Ascending
}

// SetPage moves to index clamped to [0, totalPages-1] and returns the index
// actually selected.
//
// SetPage 移动到限制在[0, totalPages-1]内的页码并返回实际选中的页码。
func (m *Manager) SetPage(index int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.criteria.Page = view.ClampPage(index, m.totalPagesLocked())
	return m.criteria.Page
}

// NextPage advances one page. It is a no-op on the last page.
func (m *Manager) NextPage() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.criteria.Page+1 >= m.totalPagesLocked() {
		return false
	}
	m.criteria.Page++
	return true
}

// PrevPage goes back one page. It is a no-op on page 0.
func (m *Manager) PrevPage() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.criteria.Page <= 0 {
		return false
	}
	m.criteria.Page--
	return true
}
