package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/admin"
	"intake-backend/internal/shared/config"
	"intake-backend/internal/shared/server/middleware"
	"intake-backend/internal/shared/server/respond"
	"intake-backend/internal/wizard"
)

// RouterDeps carries the feature handlers the router registers.
type RouterDeps struct {
	Config        config.Config
	WizardHandler *wizard.Handler
	AdminHandler  *admin.Handler
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
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.WizardHandler != nil {
		deps.WizardHandler.RegisterRoutes(api)
	}

	if deps.AdminHandler != nil {
		adminGroup := api.Group("/admin")
		adminGroup.Use(
			middleware.RateLimit(middleware.RateLimitConfig{
				Rules: map[string]middleware.RateLimitRule{
					"ADMIN": {Rate: 5, Burst: 20},
				},
				DefaultGroup: "ADMIN",
			}),
			middleware.AdminAuth(deps.Config.AdminAccessHash, deps.Config.AdminAccessCode),
		)
		deps.AdminHandler.RegisterRoutes(adminGroup)
	}

	return r
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
