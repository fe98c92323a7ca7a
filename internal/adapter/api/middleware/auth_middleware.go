package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"rxfirebase/internal/domain/service"
	"rxfirebase/pkg/errors"
	"rxfirebase/pkg/response"
)

type AuthMiddleware struct {
	authClient service.AuthProvider
}

func NewAuthMiddleware(authClient service.AuthProvider) *AuthMiddleware {
	return &AuthMiddleware{
		authClient: authClient,
	}
}

// Authenticate requires a Firebase ID token, as a Bearer header or, for
// websocket upgrades that cannot set headers, a token query parameter. The
// verified UID is stored under "uid".
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		idToken := c.QueryParam("token")

		if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
			}
			idToken = parts[1]
		}

		if idToken == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		uid, err := m.authClient.VerifyIDToken(c.Request().Context(), idToken)
		if err != nil {
			return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
		}

		c.Set("uid", uid)
		c.Set("id_token", idToken)

		return next(c)
	}
}
