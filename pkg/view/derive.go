// Package view derives the displayed product rows from a fetched page and the
// current view criteria. Every function here is pure: inputs are never
// mutated and the output depends only on the arguments.
//
// Package view 根据获取的页面和当前视图条件派生出显示的产品行。
// 这里的每个函数都是纯函数：从不修改输入，输出只取决于参数。
package view

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Humphrey-He/productdash/pkg/model"
)

// Derive filters then sorts products according to criteria.
//
// Derive 根据条件先过滤再排序产品。
//
// Parameters:
//   - products: The products of the currently loaded page
//   - criteria: Search text, category filter and sort order
//
// Returns:
//   - []model.Product: A new slice holding the displayed rows
func Derive(products []model.Product, criteria model.ViewCriteria) []model.Product {
	rows := Filter(products, criteria.Search, criteria.Category)
	sortInPlace(rows, criteria.SortField, criteria.SortDir)
	return rows
}

// Filter keeps a product iff its title contains search case-insensitively and,
// when category is non-empty, its category equals category exactly.
//
// Filter 保留标题不区分大小写包含search的产品；当category非空时，类别必须完全相等。
func Filter(products []model.Product, search, category string) []model.Product {
	needle := strings.ToLower(search)
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if !strings.Contains(strings.ToLower(p.Title), needle) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sort returns a stably sorted copy of products.
//
// Sort 返回产品的稳定排序副本。
func Sort(products []model.Product, field model.SortField, dir model.SortDirection) []model.Product {
	out := slices.Clone(products)
	sortInPlace(out, field, dir)
	return out
}

func sortInPlace(products []model.Product, field model.SortField, dir model.SortDirection) {
	sign := 1
	if dir == model.Descending {
		sign = -1
	}
	slices.SortStableFunc(products, func(a, b model.Product) int {
		return sign * Compare(a, b, field)
	})
}

// Compare orders two products by field: lexicographic for text fields,
// numeric for number fields. An unknown field compares equal.
//
// Compare 按字段比较两个产品：文本字段按字典序，数值字段按数值。
func Compare(a, b model.Product, field model.SortField) int {
	switch field {
	case model.SortByTitle:
		return strings.Compare(a.Title, b.Title)
	case model.SortByCategory:
		return strings.Compare(a.Category, b.Category)
	case model.SortByPrice:
		return cmp.Compare(a.Price, b.Price)
	case model.SortByStock:
		return cmp.Compare(a.Stock, b.Stock)
	default:
		return 0
	}
}

// Categories lists the distinct categories present in products, in first-seen
// order. Callers pass the currently loaded page only, so the list never covers
// the full catalog.
//
// Categories 按首次出现的顺序列出products中不同的类别。
// 调用方只传入当前加载的页面，因此列表从不覆盖整个目录。
func Categories(products []model.Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
