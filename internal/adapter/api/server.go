package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"rxfirebase/internal/adapter/api/handler"
	apimiddleware "rxfirebase/internal/adapter/api/middleware"
	"rxfirebase/internal/adapter/api/router"
	"rxfirebase/internal/domain/service"
	"rxfirebase/internal/infrastructure/ratelimit"
	ws "rxfirebase/internal/infrastructure/websocket"
	"rxfirebase/internal/usecase"
)

// ServerDeps is what the gateway is built from. Session serves database and
// storage requests; NewSession gives each auth request a session of its own.
type ServerDeps struct {
	Session     *usecase.Session
	NewSession  func() *usecase.Session
	Auth        service.AuthProvider
	AuthLimiter *ratelimit.RateLimiter
	Watchers    *ws.Manager
}

func NewServer(deps ServerDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = NewValidator()

	router.Setup(e, router.Handlers{
		Auth:     handler.NewAuthHandler(deps.NewSession),
		Database: handler.NewDatabaseHandler(deps.Session),
		Storage:  handler.NewStorageHandler(deps.Session),
		Watch:    handler.NewWatchHandler(deps.Session, deps.Watchers),
		Health:   handler.NewHealthHandler(deps.Session, deps.Watchers),
	}, apimiddleware.NewAuthMiddleware(deps.Auth), deps.AuthLimiter)

	return e
}
