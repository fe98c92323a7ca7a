package router

import (
	"github.com/labstack/echo/v4"

	"rxfirebase/internal/adapter/api/handler"
	"rxfirebase/internal/adapter/api/middleware"
	"rxfirebase/internal/infrastructure/ratelimit"
)

// SetupAuthRouter initializes auth routes
func SetupAuthRouter(e *echo.Echo, authHandler *handler.AuthHandler, authMiddleware *middleware.AuthMiddleware, limiter *ratelimit.RateLimiter) {
	// Public routes, rate limited per IP
	public := e.Group("/v1/auth", middleware.RateLimit(limiter))
	public.POST("/signin", authHandler.SignIn)
	public.POST("/signin/credential", authHandler.SignInWithCredential)
	public.POST("/signin/custom", authHandler.SignInWithCustomToken)
	public.POST("/signup", authHandler.SignUp)
	public.POST("/password-reset", authHandler.SendPasswordReset)

	// Protected routes
	protected := e.Group("/v1/auth")
	protected.Use(authMiddleware.Authenticate)

	protected.POST("/signout", authHandler.SignOut)
	protected.GET("/me", authHandler.Me)
}
