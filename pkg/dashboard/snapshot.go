package dashboard

import (
	"context"

	"github.com/Humphrey-He/productdash/pkg/model"
	"github.com/Humphrey-He/productdash/pkg/querycache"
	"github.com/Humphrey-He/productdash/pkg/view"
)

// Snapshot is everything the presentation layer renders.
//
// Snapshot 是表示层渲染所需的全部状态。
type Snapshot struct {
	Status            querycache.Status  `json:"status"`
	Stale             bool               `json:"stale"`
	Error             string             `json:"error,omitempty"`
	Criteria          model.ViewCriteria `json:"criteria"`
	Rows              []model.Product    `json:"rows"`
	Categories        []string           `json:"categories"`
	Total             int                `json:"total"`
	TotalPages        int                `json:"total_pages"`
	PageSize          int                `json:"page_size"`
	HasPrev           bool               `json:"has_prev"`
	HasNext           bool               `json:"has_next"`
	Dialog            Dialog             `json:"dialog"`
	Pending           map[string]bool    `json:"pending"`
	LastMutationError string             `json:"last_mutation_error,omitempty"`
}

// Snapshot returns the current state without waiting on the network. When
// the current page is idle or stale a background load starts; a failed page
// stays failed until Refresh.
//
// Snapshot 在不等待网络的情况下返回当前状态。当前页空闲或过期时启动后台加载；
// 失败的页面在Refresh之前保持失败。
func (m *Manager) Snapshot(ctx context.Context) Snapshot {
	criteria, res := m.current(ctx)

	s := Snapshot{
		Status:     res.Status,
		Stale:      res.Stale,
		Criteria:   criteria,
		Rows:       view.Derive(res.Value.Products, criteria),
		Categories: view.Categories(res.Value.Products),
		PageSize:   m.pageSize,
		Pending:    make(map[string]bool, mutationKinds),
	}
	if res.Status == querycache.StatusFailed {
		s.Error = FailedMessage
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s.Total = m.total
	s.TotalPages = m.totalPagesLocked()
	s.HasPrev = criteria.Page > 0
	s.HasNext = criteria.Page+1 < s.TotalPages
	s.Dialog = m.dialog
	for k := MutationKind(0); k < mutationKinds; k++ {
		s.Pending[k.String()] = m.pending[k] > 0
	}
	if m.lastError != nil {
		s.LastMutationError = m.lastError.Error()
	}
	return s
}
