package router

import (
	"github.com/labstack/echo/v4"

	"rxfirebase/internal/adapter/api/handler"
	"rxfirebase/internal/adapter/api/middleware"
)

// SetupWatchRouter sets up the websocket routes. Browsers cannot set headers
// on an upgrade, so the ID token may also come as ?token=.
func SetupWatchRouter(e *echo.Echo, watchHandler *handler.WatchHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/v1/watch/db/*", watchHandler.WatchDatabase, authMiddleware.Authenticate)
}
