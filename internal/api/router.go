package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iauth "github.com/casedesk/casedesk/internal/auth"
	"github.com/casedesk/casedesk/internal/handlers"
	"github.com/casedesk/casedesk/internal/middleware"
	"github.com/casedesk/casedesk/internal/services"
	"github.com/casedesk/casedesk/pkg/errors"
	"github.com/casedesk/casedesk/pkg/response"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(svc *services.PermissionService, jwt *iauth.JWTService) (*gin.Engine, error) {
	if svc == nil {
		return nil, fmt.Errorf("permission service must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	// Public endpoints
	r.GET("/health", handlers.Health())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	permHandler, err := handlers.NewPermissionHandler(svc)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	perms := api.Group("/permissions")
	{
		perms.GET("/me", permHandler.MyPermissions)
		perms.GET("/catalog", permHandler.Catalog)
		perms.GET("/users/:id", middleware.RequirePermission(svc, "MANAGE_PERMISSIONS"), permHandler.UserPermissions)
		perms.POST("/check", permHandler.Check)

		cache := perms.Group("/cache", middleware.RequirePermission(svc, "MANAGE_PERMISSIONS"))
		{
			cache.POST("/invalidate", permHandler.Invalidate)
			cache.POST("/warmup", permHandler.Warmup)
			cache.GET("/stats", permHandler.CacheStats)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, errors.New("NOT_FOUND", "Resource not found", 404))
	})

	return r, nil
}
