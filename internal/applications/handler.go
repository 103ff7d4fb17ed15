package applications

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"applyflow-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the applications service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches application routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications", h.submit)
	rg.GET("/applications", h.list)
	rg.GET("/applications/:id", h.get)
}

func (h *Handler) submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "invalid submission payload", nil)
		return
	}

	app, err := h.Svc.Submit(c.Request.Context(), SubmitInput{
		ClientID:        req.ClientID,
		Job:             req.Job,
		WaitForApproval: req.WaitForApproval,
		Notes:           req.Notes,
		Priority:        req.Priority,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicate):
			respond.Error(c, http.StatusConflict, ErrorCodeDuplicate, "an application already exists for this client and job", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to submit application", nil)
		}
		return
	}

	c.Set("applicationId", app.ID)
	respond.JSON(c, http.StatusAccepted, gin.H{
		"applicationId": app.ID,
		"status":        app.Status,
	})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "application id is required", nil)
		return
	}

	app, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to fetch application", nil)
		}
		return
	}

	respond.OK(c, toApplicationResponse(app))
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	apps, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to list applications", nil)
		return
	}

	items := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		items = append(items, toApplicationResponse(app))
	}
	respond.OK(c, gin.H{"applications": items})
}
