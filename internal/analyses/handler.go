package analyses

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zachzeid/prompteval/internal/llm"
	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/quota"
	"github.com/zachzeid/prompteval/internal/shared/server/respond"
)

// Handler exposes analysis job and suggestion endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes registers analysis routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/prompts/:id/analyses", h.submit)
	rg.GET("/analyses/:id", h.get)
	rg.GET("/analyses", h.list)
	rg.POST("/prompts/:id/suggestions", h.suggest)
}

func (h *Handler) submit(c *gin.Context) {
	promptID := c.Param("id")
	ctx := WithRequestID(c.Request.Context(), c.GetString("requestId"))

	analysis, err := h.Svc.Submit(ctx, promptID)
	if err != nil {
		switch {
		case errors.Is(err, prompts.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", fmt.Sprintf("prompt %q not found", promptID), nil)
		case errors.Is(err, quota.ErrLimitReached):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "daily LLM budget exhausted", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to submit analysis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"jobId":  analysis.ID,
		"status": analysis.Status,
	})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	analysis, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", fmt.Sprintf("analysis %q not found", id), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load analysis", nil)
		return
	}
	respond.JSON(c, http.StatusOK, analysis)
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

	analyses, err := h.Svc.List(c.Request.Context(), c.Query("promptId"), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"analyses": analyses})
}

type suggestRequest struct {
	FocusAreas []string `json:"focusAreas"`
}

func (h *Handler) suggest(c *gin.Context) {
	promptID := c.Param("id")

	var req suggestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
			return
		}
	}

	ctx := WithRequestID(c.Request.Context(), c.GetString("requestId"))
	resp, err := h.Svc.GenerateSuggestions(ctx, promptID, req.FocusAreas)
	if err != nil {
		switch {
		case errors.Is(err, prompts.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", fmt.Sprintf("prompt %q not found", promptID), nil)
		case errors.Is(err, quota.ErrLimitReached):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "daily LLM budget exhausted", nil)
		case errors.Is(err, llm.ErrNotConfigured):
			respond.Error(c, http.StatusBadGateway, "provider_error", "no LLM provider configured", nil)
		case errors.Is(err, ErrProvider):
			respond.Error(c, http.StatusBadGateway, "provider_error", sanitizeError(err), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate suggestions", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, resp)
}
