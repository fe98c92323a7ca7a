package router

import (
	"github.com/labstack/echo/v4"

	"rxfirebase/internal/adapter/api/handler"
	"rxfirebase/internal/adapter/api/middleware"
)

func SetupDatabaseRouter(e *echo.Echo, databaseHandler *handler.DatabaseHandler, authMiddleware *middleware.AuthMiddleware) {
	db := e.Group("/v1/db")
	db.Use(authMiddleware.Authenticate)

	db.GET("/*", databaseHandler.Get)
	db.PUT("/*", databaseHandler.Set)
	db.PATCH("/*", databaseHandler.Update)
	db.POST("/*", databaseHandler.Push)
	db.DELETE("/*", databaseHandler.Remove)
}
