package router

import (
	"github.com/labstack/echo/v4"

	"rxfirebase/internal/adapter/api/handler"
	"rxfirebase/internal/adapter/api/middleware"
)

func SetupStorageRouter(e *echo.Echo, storageHandler *handler.StorageHandler, authMiddleware *middleware.AuthMiddleware) {
	// Protected routes - require authentication
	files := e.Group("/v1/storage")
	files.Use(authMiddleware.Authenticate)

	files.PUT("/*", storageHandler.Upload)
	files.GET("/*", storageHandler.Download)
	files.DELETE("/*", storageHandler.Delete)

	e.GET("/v1/storage-meta/*", storageHandler.Metadata, authMiddleware.Authenticate)
}
