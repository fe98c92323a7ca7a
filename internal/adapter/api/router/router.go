package router

import (
	"github.com/labstack/echo/v4"

	"rxfirebase/internal/adapter/api/handler"
	"rxfirebase/internal/adapter/api/middleware"
	"rxfirebase/internal/infrastructure/ratelimit"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Database *handler.DatabaseHandler
	Storage  *handler.StorageHandler
	Watch    *handler.WatchHandler
	Health   *handler.HealthHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, authLimiter *ratelimit.RateLimiter) {
	SetupAuthRouter(e, h.Auth, authMiddleware, authLimiter)
	SetupDatabaseRouter(e, h.Database, authMiddleware)
	SetupStorageRouter(e, h.Storage, authMiddleware)
	SetupWatchRouter(e, h.Watch, authMiddleware)
	SetupHealthRouter(e, h.Health)
}
