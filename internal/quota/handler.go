package quota

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zachzeid/prompteval/internal/shared/server/respond"
)

// Handler exposes the quota snapshot endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes registers quota routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/quota", h.get)
}

func (h *Handler) get(c *gin.Context) {
	snap, err := h.Svc.Snapshot(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load quota", nil)
		return
	}
	respond.JSON(c, http.StatusOK, snap)
}
