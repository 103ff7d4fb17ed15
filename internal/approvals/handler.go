package approvals

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"applyflow-backend/internal/applications"
	"applyflow-backend/internal/shared/server/respond"
)

// ApproveRequest carries optional reviewer edits.
type ApproveRequest struct {
	TargetEmail   *string `json:"targetEmail"`
	EmailSubject  *string `json:"emailSubject"`
	EmailBody     *string `json:"emailBody"`
	ResumeContent *string `json:"resumeContent"`
	Notes         *string `json:"notes"`
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Handler wires HTTP handlers to the approvals service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches approval routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications/:id/approve", h.approve)
	rg.POST("/applications/:id/reject", h.reject)
}

func (h *Handler) approve(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "application id is required", nil)
		return
	}

	// An empty body is a plain approval with no edits.
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid approval payload", nil)
		return
	}

	app, err := h.Svc.Approve(c.Request.Context(), id, applications.ContentEdits{
		TargetEmail:   req.TargetEmail,
		EmailSubject:  req.EmailSubject,
		EmailBody:     req.EmailBody,
		ResumeContent: req.ResumeContent,
		Notes:         req.Notes,
	})
	if err != nil {
		respondApprovalError(c, err, app)
		return
	}

	respond.OK(c, gin.H{
		"applicationId": app.ID,
		"status":        app.Status,
		"progress":      app.Progress,
	})
}

func (h *Handler) reject(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "application id is required", nil)
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "rejection reason is required", nil)
		return
	}

	app, err := h.Svc.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondApprovalError(c, err, app)
		return
	}

	respond.OK(c, gin.H{
		"applicationId": app.ID,
		"status":        app.Status,
	})
}

func respondApprovalError(c *gin.Context, err error, app applications.Application) {
	switch {
	case errors.Is(err, applications.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
	case applications.IsInvalidTransition(err):
		respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), gin.H{"status": app.Status})
	case errors.Is(err, ErrReasonRequired):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "approval operation failed", nil)
	}
}
