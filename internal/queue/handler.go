package queue

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"applyflow-backend/internal/shared/server/respond"
)

// Handler exposes queue health and maintenance endpoints.
type Handler struct {
	Monitor     *Monitor
	Maintenance *Maintenance
	Processor   *Processor
}

// NewHandler constructs a Handler.
func NewHandler(monitor *Monitor, maintenance *Maintenance, processor *Processor) *Handler {
	return &Handler{Monitor: monitor, Maintenance: maintenance, Processor: processor}
}

// RegisterRoutes attaches queue routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/queue/health", h.health)
	rg.POST("/queue/retry", h.retry)
}

func (h *Handler) health(c *gin.Context) {
	snapshot, err := h.Monitor.Snapshot(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to collect queue health", nil)
		return
	}
	respond.OK(c, snapshot)
}

func (h *Handler) retry(c *gin.Context) {
	reset, err := h.Maintenance.RetryFailed(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to retry queue entries", nil)
		return
	}
	if reset > 0 && h.Processor != nil {
		h.Processor.Kick()
	}
	respond.OK(c, gin.H{"reset": reset})
}
