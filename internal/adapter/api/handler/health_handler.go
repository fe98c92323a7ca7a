package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	ws "rxfirebase/internal/infrastructure/websocket"
	"rxfirebase/internal/usecase"
)

type HealthHandler struct {
	session   *usecase.Session
	wsManager *ws.Manager
}

func NewHealthHandler(session *usecase.Session, wsManager *ws.Manager) *HealthHandler {
	return &HealthHandler{
		session:   session,
		wsManager: wsManager,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"client_id": h.session.ClientID(),
		"watchers":  h.wsManager.Count(),
		"time":      time.Now().Format(time.RFC3339),
	})
}
