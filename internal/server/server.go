// Package server exposes the dashboard state manager as a JSON API. Every
// route maps one user event onto a Manager call and answers with the
// resulting snapshot.
package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Humphrey-He/productdash/internal/middleware"
	"github.com/Humphrey-He/productdash/pkg/dashboard"
	pderrors "github.com/Humphrey-He/productdash/pkg/errors"
	"github.com/Humphrey-He/productdash/pkg/model"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics serves h at path.
func WithMetrics(path string, h http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metrics = h
	}
}

// Server routes HTTP requests to a dashboard.Manager.
type Server struct {
	mgr         *dashboard.Manager
	logger      *slog.Logger
	metricsPath string
	metrics     http.Handler
	engine      *gin.Engine
}

// New builds the router.
func New(mgr *dashboard.Manager, opts ...Option) *Server {
	s := &Server{mgr: mgr, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(s.logger))

	api := r.Group("/api/dashboard")
	api.GET("", s.snapshot)
	api.PUT("/criteria", s.setCriteria)
	api.POST("/page/next", s.nextPage)
	api.POST("/page/prev", s.prevPage)
	api.PUT("/page/:index", s.setPage)
	api.POST("/refresh", s.refresh)

	api.POST("/dialog/create", s.openCreate)
	api.POST("/dialog/edit/:id", s.openEdit)
	api.PATCH("/dialog/draft", s.setDraft)
	api.POST("/dialog/submit", s.submit)
	api.DELETE("/dialog", s.closeDialog)

	api.DELETE("/products/:id", s.deleteProduct)

	if s.metrics != nil && s.metricsPath != "" {
		r.GET(s.metricsPath, gin.WrapH(s.metrics))
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "resource": s.mgr.Resource()})
	})

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// statusFor maps a manager or client error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case pderrors.Is(err, pderrors.ErrNoIdentifier),
		pderrors.Is(err, pderrors.ErrPageOutOfRange),
		pderrors.Is(err, pderrors.ErrInvalidKey):
		return http.StatusBadRequest
	case pderrors.IsNotFound(err):
		return http.StatusNotFound
	case pderrors.Is(err, pderrors.ErrNoDialog):
		return http.StatusConflict
	case pderrors.IsTransport(err), pderrors.StatusCode(err) != 0:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err,
			"request_id", middleware.GetRequestID(c))
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func (s *Server) respond(c *gin.Context) {
	c.JSON(http.StatusOK, s.mgr.Snapshot(c.Request.Context()))
}

func (s *Server) snapshot(c *gin.Context) {
	s.respond(c)
}

// criteriaRequest carries the fields to change; absent fields stay as they are.
type criteriaRequest struct {
	Search    *string `json:"search"`
	Category  *string `json:"category"`
	SortField *string `json:"sort_field" binding:"omitempty,oneof=title price category stock"`
	SortDir   *string `json:"sort_dir" binding:"omitempty,oneof=asc desc"`
	Toggle    string  `json:"toggle" binding:"omitempty,oneof=title price category stock"`
}

func (s *Server) setCriteria(c *gin.Context) {
	var req criteriaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Search != nil {
		s.mgr.SetSearch(*req.Search)
	}
	if req.Category != nil {
		s.mgr.SetCategory(*req.Category)
	}
	if req.SortField != nil || req.SortDir != nil {
		cur := s.mgr.Criteria()
		field, dir := cur.SortField, cur.SortDir
		if req.SortField != nil {
			field, _ = model.ParseSortField(*req.SortField)
		}
		if req.SortDir != nil {
			dir, _ = model.ParseSortDirection(*req.SortDir)
		}
		s.mgr.SetSort(field, dir)
	}
	if req.Toggle != "" {
		field, _ := model.ParseSortField(req.Toggle)
		s.mgr.ToggleSort(field)
	}
	s.respond(c)
}

func (s *Server) nextPage(c *gin.Context) {
	s.mgr.NextPage()
	s.respond(c)
}

func (s *Server) prevPage(c *gin.Context) {
	s.mgr.PrevPage()
	s.respond(c)
}

func (s *Server) setPage(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page index must be an integer"})
		return
	}
	s.mgr.SetPage(index)
	s.respond(c)
}

// refresh reloads the current page; a failed load shows up in the snapshot status.
func (s *Server) refresh(c *gin.Context) {
	if _, err := s.mgr.Refresh(c.Request.Context()); err != nil {
		s.logger.Warn("refresh failed", "error", err, "request_id", middleware.GetRequestID(c))
	}
	s.respond(c)
}

func (s *Server) openCreate(c *gin.Context) {
	s.mgr.OpenCreate()
	s.respond(c)
}

func productID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func (s *Server) openEdit(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	if err := s.mgr.OpenEditByID(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c)
}

// draftRequest sets one form field from its raw text.
type draftRequest struct {
	Field string `json:"field" binding:"required,oneof=title price category brand stock rating"`
	Value string `json:"value"`
}

func (s *Server) setDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.mgr.SetDraftField(req.Field, req.Value); err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c)
}

func (s *Server) submit(c *gin.Context) {
	p, err := s.mgr.Submit(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p, "dashboard": s.mgr.Snapshot(c.Request.Context())})
}

func (s *Server) closeDialog(c *gin.Context) {
	s.mgr.CloseDialog()
	s.respond(c)
}

// deleteProduct deletes only when confirm=true; otherwise it returns the
// question the client must ask first.
func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	deleted, err := s.mgr.Delete(c.Request.Context(), id, dashboard.ConfirmFunc(func(string) bool {
		return confirmed
	}))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusOK, gin.H{"deleted": false, "prompt": dashboard.DeletePrompt(id)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "dashboard": s.mgr.Snapshot(c.Request.Context())})
}
