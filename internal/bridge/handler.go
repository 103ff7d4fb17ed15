package bridge

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"applyflow-backend/internal/shared/metrics"
	"applyflow-backend/internal/shared/server/respond"
	"applyflow-backend/internal/shared/telemetry"
)

const callbackSecretHeader = "X-Callback-Secret"

// Handler exposes the callback endpoint for the external worker.
type Handler struct {
	Svc    *CallbackService
	Secret string
}

// NewHandler constructs a Handler.
func NewHandler(svc *CallbackService, secret string) *Handler {
	return &Handler{Svc: svc, Secret: secret}
}

// RegisterRoutes attaches the callback route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/callbacks/applications", h.callback)
}

// callback acknowledges then records: once the secret and payload shape check
// out, the worker always gets a 200 so persistence hiccups on our side never
// turn into retry storms on theirs.
func (h *Handler) callback(c *gin.Context) {
	if h.Secret != "" {
		provided := c.GetHeader(callbackSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.Secret)) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid callback secret", nil)
			return
		}
	}

	var payload CallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid callback payload", nil)
		return
	}
	metrics.IncCallbackReceived()

	if err := h.Svc.Handle(c.Request.Context(), payload); err != nil {
		if errors.Is(err, ErrInvalidPayload) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		telemetry.Error("bridge.callback_record_failed", map[string]any{
			"application_id": payload.ApplicationID,
			"status":         payload.Status,
			"error":          err.Error(),
		})
	}

	respond.OK(c, gin.H{"received": true})
}
