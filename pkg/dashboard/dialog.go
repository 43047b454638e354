package dashboard

import (
	"context"
	"fmt"

	pderrors "github.com/Humphrey-He/productdash/pkg/errors"
	"github.com/Humphrey-He/productdash/pkg/model"
)

// DialogKind tells which form, if any, is open.
type DialogKind int

const (
	DialogClosed DialogKind = iota
	DialogCreating
	DialogEditing
)

func (k DialogKind) String() string {
	switch k {
	case DialogCreating:
		return "creating"
	case DialogEditing:
		return "editing"
	default:
		return "closed"
	}
}

// MarshalText renders the kind by name.
func (k DialogKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Dialog is the form state: closed, creating a new product, or editing
// product EditingID. Draft and EditingID are meaningful only while open,
// so at most one form exists at a time.
//
// Dialog 是表单状态：关闭、创建新产品或编辑EditingID对应的产品。
// 同一时间最多只有一个表单。
type Dialog struct {
	Kind      DialogKind  `json:"kind"`
	EditingID int         `json:"editing_id,omitempty"`
	Draft     model.Draft `json:"draft"`
}

// Open reports whether a form is shown.
func (d Dialog) Open() bool {
	return d.Kind != DialogClosed
}

// Dialog returns a copy of the dialog state.
func (m *Manager) Dialog() Dialog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dialog
}

// OpenCreate opens the create form with an empty draft, replacing any open form.
//
// OpenCreate 打开带空草稿的创建表单，替换任何已打开的表单。
func (m *Manager) OpenCreate() {
	m.mu.Lock()
	m.dialog = Dialog{Kind: DialogCreating, Draft: model.NewDraft()}
	m.mu.Unlock()
}

// OpenEdit opens the edit form pre-filled from p.
//
// OpenEdit 打开以p预填充的编辑表单。
func (m *Manager) OpenEdit(p model.Product) error {
	if p.ID <= 0 {
		return pderrors.ErrNoIdentifier
	}
	m.mu.Lock()
	m.dialog = Dialog{Kind: DialogEditing, EditingID: p.ID, Draft: model.DraftFromProduct(p)}
	m.mu.Unlock()
	return nil
}

// OpenEditByID opens the edit form for a product on the current page.
func (m *Manager) OpenEditByID(ctx context.Context, id int) error {
	_, res := m.current(ctx)
	for _, p := range res.Value.Products {
		if p.ID == id {
			return m.OpenEdit(p)
		}
	}
	return fmt.Errorf("product %d on current page: %w", id, pderrors.ErrNotFound)
}

// CloseDialog closes any open form and discards its draft.
func (m *Manager) CloseDialog() {
	m.mu.Lock()
	m.dialog = Dialog{}
	m.mu.Unlock()
}

// SetDraftField assigns a raw form value to the open draft. Numeric fields
// coerce unparseable input to zero.
//
// SetDraftField 将原始表单值赋给打开的草稿。数值字段将无法解析的输入转换为零。
func (m *Manager) SetDraftField(field, raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dialog.Open() {
		return pderrors.ErrNoDialog
	}
	return m.dialog.Draft.Set(field, raw)
}

// Submit sends the open draft: a create for the create form, an update for
// the edit form.
//
// Submit 提交打开的草稿：创建表单发送创建请求，编辑表单发送更新请求。
func (m *Manager) Submit(ctx context.Context) (model.Product, error) {
	d := m.Dialog()
	switch d.Kind {
	case DialogCreating:
		return m.Create(ctx, d.Draft)
	case DialogEditing:
		return m.Update(ctx, d.EditingID, d.Draft)
	default:
		return model.Product{}, pderrors.ErrNoDialog
	}
}
