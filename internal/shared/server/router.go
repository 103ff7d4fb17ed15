package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"applyflow-backend/internal/applications"
	"applyflow-backend/internal/approvals"
	"applyflow-backend/internal/bridge"
	"applyflow-backend/internal/queue"
	"applyflow-backend/internal/shared/config"
	"applyflow-backend/internal/shared/metrics"
	"applyflow-backend/internal/shared/server/middleware"
	"applyflow-backend/internal/shared/server/respond"
)

// RouterDeps carries the wired feature handlers.
type RouterDeps struct {
	Config             config.Config
	ApplicationHandler *applications.Handler
	ApprovalHandler    *approvals.Handler
	CallbackHandler    *bridge.Handler
	QueueHandler       *queue.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(rateLimitConfig()),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.RegisterRoutes(api)
	}
	if deps.ApprovalHandler != nil {
		deps.ApprovalHandler.RegisterRoutes(api)
	}
	if deps.CallbackHandler != nil {
		deps.CallbackHandler.RegisterRoutes(api)
	}
	if deps.QueueHandler != nil {
		deps.QueueHandler.RegisterRoutes(api)
	}

	return r
}

// rateLimitConfig gives status polling and worker callbacks more headroom
// than the mutating endpoints.
func rateLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			switch {
			case c.Request.Method == http.MethodGet:
				return "POLLING"
			case c.FullPath() == "/api/v1/callbacks/applications":
				return "CALLBACK"
			default:
				return "DEFAULT"
			}
		},
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT":  {Rate: 2, Burst: 10},
			"POLLING":  {Rate: 10, Burst: 30},
			"CALLBACK": {Rate: 10, Burst: 30},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
