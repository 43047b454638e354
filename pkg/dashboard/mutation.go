package dashboard

import (
	"context"
	"fmt"

	pderrors "github.com/Humphrey-He/productdash/pkg/errors"
	"github.com/Humphrey-He/productdash/pkg/model"
)

// MutationKind names a write operation.
type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationUpdate
	MutationDelete

	mutationKinds
)

func (k MutationKind) String() string {
	switch k {
	case MutationCreate:
		return "create"
	case MutationUpdate:
		return "update"
	case MutationDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Confirmer asks the user a yes/no question and blocks for the answer.
//
// Confirmer 向用户提出是/否问题并阻塞等待回答。
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// Pending reports whether a mutation of kind is in flight.
func (m *Manager) Pending(kind MutationKind) bool {
	if kind < 0 || kind >= mutationKinds {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending[kind] > 0
}

// LastMutationError returns the error of the most recent failed mutation,
// cleared by the next successful one.
//
// LastMutationError 返回最近一次失败变更的错误，下一次成功变更时清除。
func (m *Manager) LastMutationError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// begin counts one more mutation of kind in flight. Mutations of one kind
// may overlap; each is sent as issued.
func (m *Manager) begin(kind MutationKind) {
	m.mu.Lock()
	m.pending[kind]++
	m.mu.Unlock()
}

// finish drops the pending count and, on success, invalidates every cached
// page and applies reset to the dialog.
func (m *Manager) finish(ctx context.Context, kind MutationKind, err error, reset func(d *Dialog)) {
	if m.observer != nil {
		m.observer.MutationDone(kind, err)
	}

	if err != nil {
		m.mu.Lock()
		m.pending[kind]--
		m.lastError = fmt.Errorf("%s: %w", kind, err)
		m.mu.Unlock()
		m.logger.Warn("mutation failed", "kind", kind.String(), "error", err)
		return
	}

	n := m.cache.InvalidateResource(ctx, m.resource)

	m.mu.Lock()
	m.pending[kind]--
	m.lastError = nil
	if reset != nil {
		reset(&m.dialog)
	}
	m.mu.Unlock()
	m.logger.Info("mutation succeeded", "kind", kind.String(), "invalidated", n)
}

// Create sends a new product. On success every cached page is invalidated
// and an open create form is closed with its draft reset.
//
// Create 发送新产品。成功后所有缓存页面失效，打开的创建表单关闭并重置草稿。
//
// Parameters:
//   - ctx: Context for the remote call
//   - draft: Field values of the new product
//
// Returns:
//   - model.Product: The product with its assigned identifier
//   - error: The remote error
func (m *Manager) Create(ctx context.Context, draft model.Draft) (model.Product, error) {
	m.begin(MutationCreate)
	p, err := m.svc.Create(ctx, draft)
	m.finish(ctx, MutationCreate, err, func(d *Dialog) {
		if d.Kind == DialogCreating {
			*d = Dialog{}
		}
	})
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// Update replaces the fields of product id. On success every cached page is
// invalidated and the edit form for id, if open, is closed.
//
// Update 替换产品id的字段。成功后所有缓存页面失效，若id的编辑表单已打开则关闭。
func (m *Manager) Update(ctx context.Context, id int, draft model.Draft) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, pderrors.ErrNoIdentifier
	}
	m.begin(MutationUpdate)
	p, err := m.svc.Update(ctx, id, draft)
	m.finish(ctx, MutationUpdate, err, func(d *Dialog) {
		if d.Kind == DialogEditing && d.EditingID == id {
			*d = Dialog{}
		}
	})
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// DeletePrompt is the question put to the Confirmer before deleting id.
func DeletePrompt(id int) string {
	return fmt.Sprintf("Are you sure you want to delete product %d?", id)
}

// Delete removes product id after confirm agrees. A refusal, or a nil
// confirm, sends nothing, changes nothing and returns false.
//
// Delete 在confirm同意后删除产品id。拒绝或confirm为nil时不发送请求、不改变状态并返回false。
//
// Parameters:
//   - ctx: Context for the remote call
//   - id: Identifier of the product
//   - confirm: Asked before anything is sent
//
// Returns:
//   - bool: Whether the delete was sent and succeeded
//   - error: ErrNoIdentifier or the remote error
func (m *Manager) Delete(ctx context.Context, id int, confirm Confirmer) (bool, error) {
	if id <= 0 {
		return false, pderrors.ErrNoIdentifier
	}
	if confirm == nil || !confirm.Confirm(DeletePrompt(id)) {
		m.logger.Debug("delete not confirmed", "id", id)
		return false, nil
	}
	m.begin(MutationDelete)
	err := m.svc.Delete(ctx, id)
	m.finish(ctx, MutationDelete, err, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}
