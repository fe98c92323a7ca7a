package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"rxfirebase/internal/infrastructure/ratelimit"
	"rxfirebase/pkg/errors"
	"rxfirebase/pkg/logger"
	"rxfirebase/pkg/response"
)

// RateLimit limits requests per client IP.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			allowed, wait := limiter.Allow(ip)
			if !allowed {
				logger.Warn("RATE LIMIT: Blocked request from IP %s (retry in %v)", ip, wait)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}

			return next(c)
		}
	}
}
