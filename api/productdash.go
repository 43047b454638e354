// Package api provides the main entry point for productdash.
// It re-exports the core types from the sub-packages and wires a ready
// dashboard from a configuration.
//
// Package api 提供productdash的主要入口点。
// 它重新导出子包中的核心类型，并根据配置组装可用的仪表盘。
package api

import (
	"fmt"
	"log/slog"

	"github.com/Humphrey-He/productdash/configs"
	"github.com/Humphrey-He/productdash/pkg/cache"
	"github.com/Humphrey-He/productdash/pkg/client"
	"github.com/Humphrey-He/productdash/pkg/dashboard"
	"github.com/Humphrey-He/productdash/pkg/model"
	"github.com/Humphrey-He/productdash/pkg/querycache"
)

// Product is one catalog item.
// It is re-exported from the model package.
type Product = model.Product

// ProductPage is one page of a listing.
type ProductPage = model.ProductPage

// Draft is the editable form entry.
type Draft = model.Draft

// ViewCriteria is the search, filter, sort and page state.
type ViewCriteria = model.ViewCriteria

// Manager is the dashboard state manager.
// It is re-exported from the dashboard package.
type Manager = dashboard.Manager

// Snapshot is the rendered dashboard state.
type Snapshot = dashboard.Snapshot

// Observer receives load and mutation notifications.
type Observer = dashboard.Observer

// Confirmer answers the delete confirmation question.
type Confirmer = dashboard.Confirmer

// ProductService is the remote product resource.
// It is re-exported from the client package.
type ProductService = client.ProductService

// Stats holds the query cache counters.
type Stats = querycache.Stats

// Dashboard is a Manager together with the page cache it owns.
//
// Dashboard 是Manager及其拥有的页面缓存。
type Dashboard struct {
	*Manager

	// Store is the page store behind the query cache
	// Store 是查询缓存背后的页面存储
	Store cache.ICache[ProductPage]

	pages *querycache.Cache[ProductPage]
}

// Close releases the page store.
func (d *Dashboard) Close() error {
	return d.pages.Close()
}

// Open builds a Dashboard from cfg. svc may be nil, in which case an HTTP
// client for cfg.Service is created. observer may be nil.
//
// Open 根据cfg构建Dashboard。svc可以为nil，此时会为cfg.Service创建HTTP客户端。
// observer可以为nil。
//
// Parameters:
//   - cfg: Validated configuration
//   - svc: Remote product service, or nil
//   - logger: Logger for every component, or nil for slog.Default()
//   - observer: Load and mutation observer, or nil
//
// Returns:
//   - *Dashboard: The wired dashboard
//   - error: An error if the configuration or the page store is invalid
func Open(cfg *configs.Config, svc ProductService, logger *slog.Logger, observer Observer) (*Dashboard, error) {
	if cfg == nil {
		cfg = configs.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	store, err := cache.New[ProductPage](cfg.Cache.Options())
	if err != nil {
		return nil, err
	}
	pages := querycache.New[ProductPage](store,
		querycache.WithTTL(cfg.Cache.DefaultTTL),
		querycache.WithLogger(logger),
	)

	if svc == nil {
		svc = client.NewHTTPClient(cfg.Service.BaseURL,
			client.WithResource(cfg.Service.Resource),
			client.WithDelay(cfg.Service.Delay),
			client.WithTimeout(cfg.Service.Timeout),
			client.WithLogger(logger),
		)
	}

	opts := []dashboard.Option{
		dashboard.WithResource(cfg.Service.Resource),
		dashboard.WithPageSize(cfg.Dashboard.PageSize),
		dashboard.WithLogger(logger),
	}
	if observer != nil {
		opts = append(opts, dashboard.WithObserver(observer))
	}

	return &Dashboard{
		Manager: dashboard.New(svc, pages, opts...),
		Store:   store,
		pages:   pages,
	}, nil
}
