// Package model defines the product records exchanged with the remote product
// service and the view state owned by the dashboard.
//
// Package model 定义与远程产品服务交换的产品记录以及仪表盘持有的视图状态。
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Product represents one catalog item.
// ID is assigned by the remote service and is zero for a product not yet created.
//
// Product 表示一个目录条目。
// ID由远程服务分配，尚未创建的产品ID为零。
type Product struct {
	ID       int     `json:"id,omitempty"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Brand    string  `json:"brand"`
	Stock    int     `json:"stock"`
	Rating   float64 `json:"rating"`
}

// ProductPage is one fetched batch of products.
// Field names follow the remote listing format (products, total, skip, limit).
//
// ProductPage 是一次获取的产品批次。
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Offset   int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// Clone returns a deep copy of the page so callers never share a slice with the cache.
//
// Clone 返回页面的深拷贝，调用方永远不会与缓存共享切片。
func (p ProductPage) Clone() ProductPage {
	out := p
	if p.Products != nil {
		out.Products = make([]Product, len(p.Products))
		copy(out.Products, p.Products)
	}
	return out
}

// Draft is the mutable form entry used by the create and edit dialogs.
// It mirrors Product without the identifier.
//
// Draft 是创建和编辑对话框使用的可变表单条目。
// 它与Product字段相同但不含标识符。
type Draft struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Brand    string  `json:"brand"`
	Stock    int     `json:"stock"`
	Rating   float64 `json:"rating"`
}

// Draft field names accepted by Draft.Set.
const (
	FieldTitle    = "title"
	FieldPrice    = "price"
	FieldCategory = "category"
	FieldBrand    = "brand"
	FieldStock    = "stock"
	FieldRating   = "rating"
)

// NewDraft returns the empty template used when the create dialog opens.
func NewDraft() Draft {
	return Draft{}
}

// DraftFromProduct pre-fills a draft from an existing product for the edit dialog.
//
// DraftFromProduct 使用现有产品预填充编辑对话框的草稿。
func DraftFromProduct(p Product) Draft {
	return Draft{
		Title:    p.Title,
		Price:    p.Price,
		Category: p.Category,
		Brand:    p.Brand,
		Stock:    p.Stock,
		Rating:   p.Rating,
	}
}

// Product converts the draft into a product record carrying the given id.
func (d Draft) Product(id int) Product {
	return Product{
		ID:       id,
		Title:    d.Title,
		Price:    d.Price,
		Category: d.Category,
		Brand:    d.Brand,
		Stock:    d.Stock,
		Rating:   d.Rating,
	}
}

// Set assigns a raw form value to the named field.
// Numeric fields never reject input: anything that does not parse becomes zero.
//
// Set 将原始表单值赋给指定字段。
// 数值字段从不拒绝输入：无法解析的值变为零。
//
// Parameters:
//   - field: One of title, price, category, brand, stock, rating
//   - raw: The value as typed by the user
//
// Returns:
//   - error: An error only if the field name is unknown
func (d *Draft) Set(field, raw string) error {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case FieldTitle:
		d.Title = raw
	case FieldCategory:
		d.Category = raw
	case FieldBrand:
		d.Brand = raw
	case FieldPrice:
		d.Price = CoerceFloat(raw)
	case FieldRating:
		d.Rating = CoerceFloat(raw)
	case FieldStock:
		d.Stock = CoerceInt(raw)
	default:
		return fmt.Errorf("unknown draft field %q", field)
	}
	return nil
}

// CoerceFloat parses raw as a number, falling back to 0 for empty,
// non-numeric, NaN or infinite input.
//
// CoerceFloat 将raw解析为数字，空值、非数字、NaN或无穷大均回退为0。
func CoerceFloat(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// CoerceInt parses raw as an integer. Decimal input is truncated toward zero
// and anything unparsable becomes 0.
//
// CoerceInt 将raw解析为整数。小数输入向零截断，无法解析的输入变为0。
func CoerceInt(raw string) int {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f := CoerceFloat(s)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}
