package model

import (
	"fmt"
	"strings"
)

// SortField names the product attribute the table is ordered by.
//
// SortField 表示表格排序所依据的产品属性。
type SortField string

// Sortable fields.
const (
	SortByTitle    SortField = "title"
	SortByPrice    SortField = "price"
	SortByCategory SortField = "category"
	SortByStock    SortField = "stock"
)

// SortDirection is ascending or descending.
type SortDirection string

// Sort directions.
const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortField validates a sort field name.
//
// ParseSortField 验证排序字段名称。
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortByTitle, SortByPrice, SortByCategory, SortByStock:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported sort field %q", s)
	}
}

// ParseSortDirection validates a sort direction.
func ParseSortDirection(s string) (SortDirection, error) {
	switch d := SortDirection(strings.ToLower(strings.TrimSpace(s))); d {
	case Ascending, Descending:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported sort direction %q", s)
	}
}

// Reverse returns the opposite direction.
func (d SortDirection) Reverse() SortDirection {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// ViewCriteria is the search, filter, sort and pagination state that controls
// what the user currently sees. It is never persisted.
//
// ViewCriteria 是控制用户当前所见内容的搜索、过滤、排序和分页状态。它从不持久化。
type ViewCriteria struct {
	Search    string        `json:"search"`
	Category  string        `json:"category"`
	SortField SortField     `json:"sort_field"`
	SortDir   SortDirection `json:"sort_dir"`
	Page      int           `json:"page"`
}

// DefaultCriteria returns the initial view: first page, sorted by title ascending.
func DefaultCriteria() ViewCriteria {
	return ViewCriteria{
		SortField: SortByTitle,
		SortDir:   Ascending,
	}
}
