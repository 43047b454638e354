package mockservice

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Humphrey-He/productdash/internal/middleware"
	pderrors "github.com/Humphrey-He/productdash/pkg/errors"
	"github.com/Humphrey-He/productdash/pkg/model"
	"github.com/gin-gonic/gin"
)

// defaultLimit applies when a listing omits limit.
const defaultLimit = 30

// Config configures the mock service.
type Config struct {
	Resource string
	Seed     int
	Latency  time.Duration
	Logger   *slog.Logger
}

// listQuery is the listing query string.
type listQuery struct {
	Limit *int `form:"limit" binding:"omitempty,gte=0,lte=100"`
	Skip  int  `form:"skip" binding:"gte=0"`
}

// productRequest is the create and update body.
type productRequest struct {
	Title    string  `json:"title" binding:"max=200"`
	Price    float64 `json:"price"`
	Category string  `json:"category" binding:"max=100"`
	Brand    string  `json:"brand" binding:"max=100"`
	Stock    int     `json:"stock"`
	Rating   float64 `json:"rating" binding:"gte=0,lte=5"`
}

func (r productRequest) draft() model.Draft {
	return model.Draft{
		Title:    r.Title,
		Price:    r.Price,
		Category: r.Category,
		Brand:    r.Brand,
		Stock:    r.Stock,
		Rating:   r.Rating,
	}
}

// Service serves a Store over HTTP.
type Service struct {
	store    *Store
	resource string
	logger   *slog.Logger
	failing  atomic.Bool
	engine   *gin.Engine
}

// New builds the service and its routes.
func New(cfg Config) *Service {
	if cfg.Resource == "" {
		cfg.Resource = "products"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Service{
		store:    NewStore(cfg.Seed, cfg.Latency),
		resource: cfg.Resource,
		logger:   cfg.Logger.With("component", "mockservice"),
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(s.logger))

	g := r.Group("/"+s.resource, s.failure())
	g.GET("", s.list)
	g.GET("/:id", s.get)
	g.POST("/add", s.create)
	g.PUT("/:id", s.update)
	g.PATCH("/:id", s.update)
	g.DELETE("/:id", s.delete)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "calls": s.store.Calls()})
	})

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Service) Handler() http.Handler {
	return s.engine
}

// Store exposes the backing store.
func (s *Service) Store() *Store {
	return s.store
}

// SetFailing makes every resource route answer 503 until turned off.
func (s *Service) SetFailing(failing bool) {
	s.failing.Store(failing)
}

func (s *Service) failure() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.failing.Load() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "service unavailable"})
			return
		}
		c.Next()
	}
}

func (s *Service) fail(c *gin.Context, err error) {
	switch {
	case pderrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"message": "Product with id '" + c.Param("id") + "' not found"})
	default:
		s.logger.Error("store failure", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}

func (s *Service) id(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product id '" + c.Param("id") + "'"})
		return 0, false
	}
	return id, true
}

func (s *Service) list(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	limit := defaultLimit
	if q.Limit != nil {
		limit = *q.Limit
	}

	page, err := s.store.List(c.Request.Context(), q.Skip, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Service) get(c *gin.Context) {
	id, ok := s.id(c)
	if !ok {
		return
	}
	p, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Service) create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	p, err := s.store.Create(c.Request.Context(), req.draft())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Service) update(c *gin.Context) {
	id, ok := s.id(c)
	if !ok {
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	p, err := s.store.Update(c.Request.Context(), id, req.draft())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Service) delete(c *gin.Context) {
	id, ok := s.id(c)
	if !ok {
		return
	}
	p, err := s.store.Delete(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        p.ID,
		"title":     p.Title,
		"price":     p.Price,
		"category":  p.Category,
		"brand":     p.Brand,
		"stock":     p.Stock,
		"rating":    p.Rating,
		"isDeleted": true,
		"deletedOn": time.Now().UTC().Format(time.RFC3339),
	})
}
