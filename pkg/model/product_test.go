package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftSetCoercesNumericFields(t *testing.T) {
	testCases := []struct {
		desc  string
		field string
		raw   string
		check func(t *testing.T, d Draft)
	}{
		{
			desc:  "price_decimal",
			field: FieldPrice,
			raw:   "9.99",
			check: func(t *testing.T, d Draft) { assert.InDelta(t, 9.99, d.Price, 1e-9) },
		},
		{
			desc:  "price_garbage_becomes_zero",
			field: FieldPrice,
			raw:   "abc",
			check: func(t *testing.T, d Draft) { assert.Zero(t, d.Price) },
		},
		{
			desc:  "price_nan_becomes_zero",
			field: FieldPrice,
			raw:   "NaN",
			check: func(t *testing.T, d Draft) { assert.Zero(t, d.Price) },
		},
		{
			desc:  "stock_integer",
			field: FieldStock,
			raw:   " 5 ",
			check: func(t *testing.T, d Draft) { assert.Equal(t, 5, d.Stock) },
		},
		{
			desc:  "stock_decimal_truncated",
			field: FieldStock,
			raw:   "7.8",
			check: func(t *testing.T, d Draft) { assert.Equal(t, 7, d.Stock) },
		},
		{
			desc:  "stock_empty_becomes_zero",
			field: FieldStock,
			raw:   "",
			check: func(t *testing.T, d Draft) { assert.Equal(t, 0, d.Stock) },
		},
		{
			desc:  "rating",
			field: FieldRating,
			raw:   "4.5",
			check: func(t *testing.T, d Draft) { assert.InDelta(t, 4.5, d.Rating, 1e-9) },
		},
		{
			desc:  "title_kept_verbatim",
			field: FieldTitle,
			raw:   "  Widget ",
			check: func(t *testing.T, d Draft) { assert.Equal(t, "  Widget ", d.Title) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			d := NewDraft()
			require.NoError(t, d.Set(tc.field, tc.raw))
			tc.check(t, d)
		})
	}
}

func TestDraftSetUnknownField(t *testing.T) {
	d := NewDraft()
	assert.Error(t, d.Set("id", "4"))
}

func TestDraftRoundTripsProduct(t *testing.T) {
	p := Product{ID: 3, Title: "Lamp", Price: 12.5, Category: "home", Brand: "Lumo", Stock: 4, Rating: 3.9}
	d := DraftFromProduct(p)
	assert.Equal(t, p, d.Product(3))
	assert.Zero(t, d.Product(0).ID)
}

func TestPageCloneIsIndependent(t *testing.T) {
	page := ProductPage{Products: []Product{{ID: 1, Title: "a"}}, Total: 1}
	clone := page.Clone()
	clone.Products[0].Title = "changed"
	assert.Equal(t, "a", page.Products[0].Title)
}

func TestParseSort(t *testing.T) {
	f, err := ParseSortField("Price")
	require.NoError(t, err)
	assert.Equal(t, SortByPrice, f)

	_, err = ParseSortField("rating")
	assert.Error(t, err)

	d, err := ParseSortDirection("DESC")
	require.NoError(t, err)
	assert.Equal(t, Descending, d)
	assert.Equal(t, Ascending, d.Reverse())
}
