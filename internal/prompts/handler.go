package prompts

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zachzeid/prompteval/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the prompts service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches prompt routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/prompts/parse-text", h.parseText)
	rg.POST("/prompts/inline", h.createInline)
	rg.GET("/prompts", h.listPrompts)
	rg.GET("/prompts/export", h.exportPrompts)
	rg.GET("/prompts/:id", h.getPrompt)
	rg.PUT("/prompts/:id", h.updatePrompt)
	rg.DELETE("/prompts", h.clearPrompts)
}

type parseTextRequest struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

func (h *Handler) parseText(c *gin.Context) {
	var req parseTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	filename := req.Filename
	if filename == "" {
		filename = "inline.md"
	}

	result, err := h.Svc.ParseAndStore(c.Request.Context(), req.Text, filename, "")
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyContent):
			respond.Error(c, http.StatusBadRequest, "validation_error", "text is required", nil)
		case errors.Is(err, ErrNoPrompts):
			respond.Error(c, http.StatusUnprocessableEntity, "format_error", "no prompts found in the provided text", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to parse prompts", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, result)
}

type inlineRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
	Name    string `json:"name"`
}

func (h *Handler) createInline(c *gin.Context) {
	var req inlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Type == "" {
		req.Type = string(TypeUser)
	}

	p, err := h.Svc.CreateInline(c.Request.Context(), req.Content, req.Type, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyContent):
			respond.Error(c, http.StatusBadRequest, "validation_error", "content is required", nil)
		case errors.Is(err, ErrInvalidType):
			respond.Error(c, http.StatusBadRequest, "validation_error",
				fmt.Sprintf("Invalid type %q. Use 'system', 'user', or 'skill'.", req.Type), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create prompt", nil)
		}
		return
	}

	c.Set("promptId", p.ID)
	respond.JSON(c, http.StatusCreated, p)
}

func (h *Handler) listPrompts(c *gin.Context) {
	ps, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list prompts", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"prompts": ps,
		"count":   len(ps),
	})
}

func (h *Handler) getPrompt(c *gin.Context) {
	id := c.Param("id")
	p, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", fmt.Sprintf("prompt %q not found", id), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch prompt", nil)
		}
		return
	}
	c.Set("promptId", p.ID)
	respond.JSON(c, http.StatusOK, p)
}

type updatePromptRequest struct {
	Content string `json:"content"`
}

func (h *Handler) updatePrompt(c *gin.Context) {
	id := c.Param("id")
	var req updatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	p, warnings, err := h.Svc.UpdateContent(c.Request.Context(), id, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyContent):
			respond.Error(c, http.StatusBadRequest, "validation_error", "content is required", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", fmt.Sprintf("prompt %q not found", id), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update prompt", nil)
		}
		return
	}

	c.Set("promptId", p.ID)
	respond.JSON(c, http.StatusOK, gin.H{
		"prompt":   p,
		"warnings": warnings,
	})
}

func (h *Handler) clearPrompts(c *gin.Context) {
	if err := h.Svc.Clear(c.Request.Context()); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to clear prompts", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"cleared": true})
}

func (h *Handler) exportPrompts(c *gin.Context) {
	var ids []string
	if raw := c.Query("ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	save := c.Query("save") == "1" || strings.EqualFold(c.Query("save"), "true")

	markdown, key, err := h.Svc.Export(c.Request.Context(), ids, save)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoPrompts):
			respond.Error(c, http.StatusNotFound, "not_found", "no matching prompts to export", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to export prompts", nil)
		}
		return
	}

	resp := gin.H{
		"markdown": markdown,
	}
	if key != "" {
		resp["storageKey"] = key
	}
	respond.JSON(c, http.StatusOK, resp)
}
