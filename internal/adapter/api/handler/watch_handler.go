package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"rxfirebase/internal/domain/entity"
	ws "rxfirebase/internal/infrastructure/websocket"
	"rxfirebase/internal/usecase"
	"rxfirebase/pkg/errors"
	"rxfirebase/pkg/response"
)

type WatchHandler struct {
	session   *usecase.Session
	wsManager *ws.Manager
	upgrader  gorillaws.Upgrader
}

func NewWatchHandler(session *usecase.Session, wsManager *ws.Manager) *WatchHandler {
	return &WatchHandler{
		session:   session,
		wsManager: wsManager,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// WatchDatabase streams the events selected by ?event= at the location over
// a websocket until either side closes it.
func (h *WatchHandler) WatchDatabase(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}
	p, err := ownedPath(c)
	if err != nil {
		return response.Error(c, err)
	}

	event, err := entity.ParseEventType(c.QueryParam("event"))
	if err != nil {
		return response.Error(c, errors.BadRequest(err.Error(), err))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	ref := h.session.Database().Child(p)
	ws.Pump(c.Request().Context(), h.wsManager, ws.NewClient(uid, conn), ref.Observe(event))
	return nil
}
