// Package api exposes the simulator over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xtding233/enhance-sim/internal/enhance"
	"github.com/xtding233/enhance-sim/internal/logger"
	"github.com/xtding233/enhance-sim/internal/metrics"
	"github.com/xtding233/enhance-sim/internal/service"
)

// Handler serves the /v1 routes.
type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// NewRouter builds a gin engine with middleware, the /v1 routes, /healthz and,
// when m is non-nil, /metrics at metricsPath.
func NewRouter(svc *service.Service, m *metrics.Metrics, metricsPath string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(m))
	NewHandler(svc).RegisterRoutes(r)
	r.GET("/healthz", func(c *gin.Context) {
		s := svc.Settings()
		c.JSON(http.StatusOK, gin.H{"status": "ok", "profile": s.Profile, "version": s.Version})
	})
	if m != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(m.Handler()))
	}
	return r
}

// RegisterRoutes binds the handler methods to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/v1")
	{
		v1.GET("/catalog", h.Catalog)
		v1.POST("/pool", h.Pool)
		v1.POST("/roll", h.Roll)
		v1.POST("/runs", h.Run)
		v1.POST("/predictions", h.Predict)
		v1.POST("/strategies/rank", h.Rank)
		v1.GET("/combos", h.Combos)

		v1.POST("/searches", h.StartSearch)
		v1.GET("/searches/:id", h.GetSearch)
		v1.DELETE("/searches/:id", h.CancelSearch)

		v1.POST("/sessions", h.CreateSession)
		v1.GET("/sessions/:id", h.GetSession)
		v1.POST("/sessions/:id/enhance", h.Enhance)
		v1.POST("/sessions/:id/carrier", h.UseCarrier)
		v1.POST("/sessions/:id/reset", h.ResetSession)
		v1.DELETE("/sessions/:id", h.DeleteSession)
	}
}

func (h *Handler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"options": h.svc.Catalog(), "settings": h.svc.Settings()})
}

func (h *Handler) Combos(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": h.svc.ComboPresets()})
}

func (h *Handler) Pool(c *gin.Context) {
	var req service.PoolRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.svc.Pool(c.Request.Context(), req)
	respond(c, http.StatusOK, resp, err)
}

func (h *Handler) Roll(c *gin.Context) {
	var req service.RollRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.svc.Roll(c.Request.Context(), req)
	respond(c, http.StatusOK, resp, err)
}

func (h *Handler) Run(c *gin.Context) {
	var req service.RunRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.svc.SimulateRun(c.Request.Context(), req)
	respond(c, http.StatusOK, resp, err)
}

func (h *Handler) Predict(c *gin.Context) {
	var req service.PredictRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.svc.Predict(c.Request.Context(), req)
	respond(c, http.StatusOK, resp, err)
}

func (h *Handler) Rank(c *gin.Context) {
	var req service.RankRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.svc.RankStrategies(c.Request.Context(), req)
	respond(c, http.StatusOK, resp, err)
}

func (h *Handler) StartSearch(c *gin.Context) {
	var req service.SearchRequest
	if !bind(c, &req) {
		return
	}
	job, err := h.svc.StartSearch(c.Request.Context(), req)
	respond(c, http.StatusAccepted, job, err)
}

func (h *Handler) GetSearch(c *gin.Context) {
	job, err := h.svc.Search(c.Param("id"))
	respond(c, http.StatusOK, job, err)
}

// CancelSearch stops a search and returns its final state.
func (h *Handler) CancelSearch(c *gin.Context) {
	job, err := h.svc.CancelSearch(c.Param("id"))
	respond(c, http.StatusOK, job, err)
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req service.CreateSessionRequest
	if !bind(c, &req) {
		return
	}
	v, err := h.svc.CreateSession(c.Request.Context(), req)
	respond(c, http.StatusCreated, v, err)
}

func (h *Handler) GetSession(c *gin.Context) {
	v, err := h.svc.Session(c.Param("id"))
	respond(c, http.StatusOK, v, err)
}

func (h *Handler) Enhance(c *gin.Context) {
	v, err := h.svc.Enhance(c.Param("id"))
	respond(c, http.StatusOK, v, err)
}

func (h *Handler) UseCarrier(c *gin.Context) {
	v, err := h.svc.UseCarrier(c.Param("id"))
	respond(c, http.StatusOK, v, err)
}

func (h *Handler) ResetSession(c *gin.Context) {
	v, err := h.svc.ResetSession(c.Param("id"))
	respond(c, http.StatusOK, v, err)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.svc.DeleteSession(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bind decodes the JSON body; an empty body leaves req at its zero value.
func bind(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func respond(c *gin.Context, code int, body any, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(code, body)
}

func fail(c *gin.Context, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoTarget),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnknownOption),
		errors.Is(err, service.ErrTooManyFixed),
		errors.Is(err, enhance.ErrUnknownMetric):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTooMany):
		return http.StatusTooManyRequests
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
