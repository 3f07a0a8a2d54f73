package heuristics

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the heuristics service.
type Handler struct {
	Svc     *Service
	Prompts *prompts.Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, promptSvc *prompts.Service) *Handler {
	return &Handler{Svc: svc, Prompts: promptSvc}
}

// RegisterRoutes attaches heuristic routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/prompts/:id/heuristics", h.analyzePrompt)
	rg.POST("/heuristics/check", h.checkText)
	rg.GET("/heuristics/config", h.getConfig)
}

func (h *Handler) analyzePrompt(c *gin.Context) {
	id := c.Param("id")
	p, err := h.Prompts.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, prompts.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", fmt.Sprintf("prompt %q not found", id), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch prompt", nil)
		}
		return
	}

	c.Set("promptId", p.ID)
	respond.JSON(c, http.StatusOK, h.Svc.Analyze(p))
}

type checkRequest struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

func (h *Handler) checkText(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "text is required", nil)
		return
	}
	if req.Type == "" {
		req.Type = string(prompts.TypeUser)
	}
	typ, ok := prompts.ParseType(req.Type)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error",
			fmt.Sprintf("Invalid type %q. Use 'system', 'user', or 'skill'.", req.Type), nil)
		return
	}

	p := prompts.Prompt{
		Name:      "inline-prompt",
		Type:      typ,
		Content:   strings.TrimSpace(req.Text),
		LineStart: 1,
		LineEnd:   strings.Count(req.Text, "\n") + 1,
	}
	respond.JSON(c, http.StatusOK, h.Svc.Analyze(p))
}

func (h *Handler) getConfig(c *gin.Context) {
	respond.JSON(c, http.StatusOK, h.Svc.Config())
}
