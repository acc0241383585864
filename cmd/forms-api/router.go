package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"community-registration/volunteer-forms-backend/internal/auth"
	"community-registration/volunteer-forms-backend/internal/events"
	"community-registration/volunteer-forms-backend/internal/forms"
	"community-registration/volunteer-forms-backend/internal/middleware"
	"community-registration/volunteer-forms-backend/internal/notifications"
	"community-registration/volunteer-forms-backend/internal/volunteers"
)

// handlers are the feature handlers mounted on the router.
type handlers struct {
	forms         *forms.Handler
	volunteers    *volunteers.Handler
	notifications *notifications.Handler
	auth          *auth.Handler
	events        *events.Handler
}

type routerOptions struct {
	corsOrigins []string
	limiter     *middleware.RateLimiter
}

func newRouter(h handlers, opts routerOptions, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(logger), middleware.Logger(logger), middleware.CORS(opts.corsOrigins))

	admin := h.auth.RequireAdmin()
	limit := opts.limiter.Middleware()

	// Routes the registration site has always called.
	legacy := router.Group("/", limit)
	h.forms.RegisterLegacyRoutes(legacy)
	h.notifications.RegisterLegacyRoutes(legacy, admin)

	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api.Group("", limit), h.auth)
		h.forms.RegisterRoutes(api.Group("", limit), admin)
		h.volunteers.RegisterRoutes(api, admin)
		h.notifications.RegisterRoutes(api, admin)
		h.events.RegisterRoutes(api, admin)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	return router
}
