package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Humphrey-He/productdash/internal/metrics"
	"github.com/Humphrey-He/productdash/internal/mockservice"
	"github.com/Humphrey-He/productdash/pkg/cache"
	"github.com/Humphrey-He/productdash/pkg/client"
	"github.com/Humphrey-He/productdash/pkg/dashboard"
	"github.com/Humphrey-He/productdash/pkg/model"
	"github.com/Humphrey-He/productdash/pkg/querycache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type snapshot struct {
	Status     string             `json:"status"`
	Error      string             `json:"error"`
	Criteria   model.ViewCriteria `json:"criteria"`
	Rows       []model.Product    `json:"rows"`
	Total      int                `json:"total"`
	TotalPages int                `json:"total_pages"`
	Dialog     struct {
		Kind      string      `json:"kind"`
		EditingID int         `json:"editing_id"`
		Draft     model.Draft `json:"draft"`
	} `json:"dialog"`
	LastMutationError string `json:"last_mutation_error"`
}

type fixture struct {
	svc     *mockservice.Service
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := mockservice.New(mockservice.Config{Seed: 25, Latency: time.Millisecond, Logger: logger})
	remote := httptest.NewServer(svc.Handler())
	t.Cleanup(remote.Close)

	store, err := cache.New[model.ProductPage](nil)
	require.NoError(t, err)
	qc := querycache.New[model.ProductPage](store, querycache.WithLogger(logger))
	t.Cleanup(func() { _ = qc.Close() })

	m := metrics.New(metrics.Basic)
	mgr := dashboard.New(client.NewHTTPClient(remote.URL), qc,
		dashboard.WithLogger(logger), dashboard.WithObserver(m))
	exp := metrics.NewPrometheusExporter(m, "pages", mgr, store)

	s := New(mgr, WithLogger(logger), WithMetrics("/metrics", exp))
	return &fixture{svc: svc, handler: s.Handler()}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r).WithContext(context.Background())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) snap(t *testing.T, method, path string, body any) snapshot {
	t.Helper()
	rec := f.do(t, method, path, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var s snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func TestRefreshAndPaging(t *testing.T) {
	f := newFixture(t)

	s := f.snap(t, http.MethodPost, "/api/dashboard/refresh", nil)
	assert.Equal(t, "resolved", s.Status)
	assert.Len(t, s.Rows, 10)
	assert.Equal(t, 25, s.Total)
	assert.Equal(t, 3, s.TotalPages)

	s = f.snap(t, http.MethodPost, "/api/dashboard/page/next", nil)
	assert.Equal(t, 1, s.Criteria.Page)

	s = f.snap(t, http.MethodPut, "/api/dashboard/page/99", nil)
	assert.Equal(t, 2, s.Criteria.Page)

	s = f.snap(t, http.MethodPost, "/api/dashboard/refresh", nil)
	assert.Equal(t, "resolved", s.Status)
	assert.Len(t, s.Rows, 5)

	s = f.snap(t, http.MethodPost, "/api/dashboard/page/prev", nil)
	assert.Equal(t, 1, s.Criteria.Page)

	rec := f.do(t, http.MethodPut, "/api/dashboard/page/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCriteria(t *testing.T) {
	f := newFixture(t)
	f.snap(t, http.MethodPost, "/api/dashboard/refresh", nil)

	s := f.snap(t, http.MethodPut, "/api/dashboard/criteria", map[string]string{
		"sort_field": "price", "sort_dir": "desc",
	})
	assert.Equal(t, model.SortByPrice, s.Criteria.SortField)
	assert.Equal(t, model.Descending, s.Criteria.SortDir)
	for i := 1; i < len(s.Rows); i++ {
		assert.GreaterOrEqual(t, s.Rows[i-1].Price, s.Rows[i].Price)
	}

	s = f.snap(t, http.MethodPut, "/api/dashboard/criteria", map[string]string{"toggle": "price"})
	assert.Equal(t, model.Ascending, s.Criteria.SortDir)

	s = f.snap(t, http.MethodPut, "/api/dashboard/criteria", map[string]string{"search": "zzz-no-match"})
	assert.Empty(t, s.Rows)

	rec := f.do(t, http.MethodPut, "/api/dashboard/criteria", map[string]string{"sort_field": "weight"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateThroughDialog(t *testing.T) {
	f := newFixture(t)
	f.snap(t, http.MethodPost, "/api/dashboard/refresh", nil)

	s := f.snap(t, http.MethodPost, "/api/dashboard/dialog/create", nil)
	assert.Equal(t, "creating", s.Dialog.Kind)

	f.snap(t, http.MethodPatch, "/api/dashboard/dialog/draft", map[string]string{"field": "title", "value": "Widget"})
	s = f.snap(t, http.MethodPatch, "/api/dashboard/dialog/draft", map[string]string{"field": "price", "value": "abc"})
	assert.Equal(t, "Widget", s.Dialog.Draft.Title)
	assert.Zero(t, s.Dialog.Draft.Price)

	rec := f.do(t, http.MethodPatch, "/api/dashboard/dialog/draft", map[string]string{"field": "colour", "value": "red"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/dashboard/dialog/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Product   model.Product `json:"product"`
		Dashboard snapshot      `json:"dashboard"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 26, out.Product.ID)
	assert.Equal(t, "closed", out.Dashboard.Dialog.Kind)
	assert.Equal(t, int64(1), f.svc.Store().Calls().Create)

	s = f.snap(t, http.MethodPost, "/api/dashboard/refresh", nil)
	assert.Equal(t, 26, s.Total)
}

func TestEditThroughDialog(t *testing.T) {
	f := newFixture(t)
	f.snap(t, http.MethodPost, "/api/dashboard/refresh", nil)

	s := f.snap(t, http.MethodPost, "/api/dashboard/dialog/edit/1", nil)
	assert.Equal(t, "editing", s.Dialog.Kind)
	assert.Equal(t, 1, s.Dialog.EditingID)
	assert.NotEmpty(t, s.Dialog.Draft.Title)

	f.snap(t, http.MethodPatch, "/api/dashboard/dialog/draft", map[string]string{"field": "stock", "value": "42"})
	rec := f.do(t, http.MethodPost, "/api/dashboard/dialog/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p, err := f.svc.Store().Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 42, p.Stock)

	rec = f.do(t, http.MethodPost, "/api/dashboard/dialog/edit/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/dashboard/dialog/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	s = f.snap(t, http.MethodPost, "/api/dashboard/dialog/create", nil)
	assert.Equal(t, "creating", s.Dialog.Kind)
	s = f.snap(t, http.MethodDelete, "/api/dashboard/dialog", nil)
	assert.Equal(t, "closed", s.Dialog.Kind)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.snap(t, http.MethodPost, "/api/dashboard/refresh", nil)

	rec := f.do(t, http.MethodDelete, "/api/dashboard/products/3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":false`)
	assert.Contains(t, rec.Body.String(), dashboard.DeletePrompt(3))
	assert.Zero(t, f.svc.Store().Calls().Delete)

	rec = f.do(t, http.MethodDelete, "/api/dashboard/products/3?confirm=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":true`)
	assert.Equal(t, int64(1), f.svc.Store().Calls().Delete)

	rec = f.do(t, http.MethodDelete, "/api/dashboard/products/3?confirm=true", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/dashboard/products/0?confirm=true", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFailedLoadIsReported(t *testing.T) {
	f := newFixture(t)
	f.svc.SetFailing(true)

	s := f.snap(t, http.MethodPost, "/api/dashboard/refresh", nil)
	assert.Equal(t, "failed", s.Status)
	assert.Equal(t, dashboard.FailedMessage, s.Error)

	s = f.snap(t, http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, "failed", s.Status)

	f.svc.SetFailing(false)
	s = f.snap(t, http.MethodPost, "/api/dashboard/refresh", nil)
	assert.Equal(t, "resolved", s.Status)
	assert.Empty(t, s.Error)
}

func TestMetricsAndHealth(t *testing.T) {
	f := newFixture(t)
	f.snap(t, http.MethodPost, "/api/dashboard/refresh", nil)

	rec := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `productdash_loads_total{cache="pages"} 1`)
	assert.Contains(t, rec.Body.String(), "productdash_query_fetches_total")

	rec = f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"resource":"products"`))
	assert.NotEmpty(t, rec.Header().Get(client.RequestIDHeader))
}
