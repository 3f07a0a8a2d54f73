package revisions

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/shared/server/respond"
)

// Handler exposes revision endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes registers revision routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/revisions", h.list)
	rg.GET("/revisions/:id", h.get)
	rg.POST("/revisions/:id/apply", h.apply)
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	revs, err := h.Svc.List(c.Request.Context(), c.Query("promptId"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list revisions", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"revisions": revs})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	rev, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "revision "+strconv.Quote(id)+" not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load revision", nil)
		return
	}
	respond.JSON(c, http.StatusOK, rev)
}

type applyRequest struct {
	Changes []int `json:"changes"`
}

func (h *Handler) apply(c *gin.Context) {
	id := c.Param("id")

	var req applyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
			return
		}
	}

	result, err := h.Svc.Apply(c.Request.Context(), id, req.Changes)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, result)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "revision "+strconv.Quote(id)+" not found", nil)
	case errors.Is(err, prompts.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "prompt for revision no longer exists", nil)
	case errors.Is(err, ErrBadSelection):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNothingApplied):
		respond.Error(c, http.StatusConflict, "conflict", "no changes could be applied", result.Changes)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to apply revision", nil)
	}
}
