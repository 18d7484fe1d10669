package router // package router defines how HTTP routes are registered for the control API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-sim/internal/config"
	"github.com/iliyamo/restaurant-sim/internal/handler"
	"github.com/iliyamo/restaurant-sim/internal/middleware"
	"github.com/iliyamo/restaurant-sim/internal/utils"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterRuns registers the run endpoints.  Reads are public and cached
// in Redis when a client is given; starting a run requires an operator
// token and is rate limited.  rdb may be nil.
func RegisterRuns(e *echo.Echo, h *handler.RunHandler, cfg config.Config, rdb *redis.Client) {
	cache := middleware.NewRedisCache(cfg.Cache, rdb)
	e.GET("/v1/runs", h.List, cache)
	e.GET("/v1/runs/:id", h.Get, cache)
	// The state changes with every snapshot; it is never cached.
	e.GET("/v1/runs/:id/state", h.State)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	auth.GET("/me", handler.Me, middleware.RequireRole(utils.RoleOperator, utils.RoleViewer))
	auth.POST("/runs", h.Start,
		middleware.RequireRole(utils.RoleOperator),
		middleware.NewTokenBucket(cfg.RateLimit, rdb))
}
