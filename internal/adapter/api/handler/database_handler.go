package handler

import (
	"encoding/json"

	"github.com/labstack/echo/v4"

	"rxfirebase/internal/usecase"
	"rxfirebase/pkg/errors"
	"rxfirebase/pkg/response"
)

type DatabaseHandler struct {
	session *usecase.Session
}

func NewDatabaseHandler(session *usecase.Session) *DatabaseHandler {
	return &DatabaseHandler{
		session: session,
	}
}

type refResponse struct {
	Key  string `json:"key"`
	Path string `json:"path"`
}

func toRefResponse(ref *usecase.DatabaseRef) refResponse {
	return refResponse{Key: ref.Key(), Path: ref.Path()}
}

func (h *DatabaseHandler) ref(c echo.Context) (*usecase.DatabaseRef, error) {
	p, err := ownedPath(c)
	if err != nil {
		return nil, err
	}
	return h.session.Database().Child(p), nil
}

// Get returns a single value snapshot of the location.
func (h *DatabaseHandler) Get(c echo.Context) error {
	ref, err := h.ref(c)
	if err != nil {
		return response.Error(c, err)
	}

	snap, err := ref.GetValue().Await(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, snap)
}

func (h *DatabaseHandler) Set(c echo.Context) error {
	ref, err := h.ref(c)
	if err != nil {
		return response.Error(c, err)
	}

	value, err := decodeValue(c)
	if err != nil {
		return response.Error(c, err)
	}

	written, err := ref.SetValue(value, false).Await(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, toRefResponse(written))
}

// Push writes the body under a new time ordered key.
func (h *DatabaseHandler) Push(c echo.Context) error {
	ref, err := h.ref(c)
	if err != nil {
		return response.Error(c, err)
	}

	value, err := decodeValue(c)
	if err != nil {
		return response.Error(c, err)
	}

	written, err := ref.SetValue(value, true).Await(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, toRefResponse(written))
}

func (h *DatabaseHandler) Update(c echo.Context) error {
	ref, err := h.ref(c)
	if err != nil {
		return response.Error(c, err)
	}

	value, err := decodeValue(c)
	if err != nil {
		return response.Error(c, err)
	}
	values, ok := value.(map[string]interface{})
	if !ok {
		return response.Error(c, errors.BadRequest("Update body must be a JSON object", nil))
	}

	written, err := ref.UpdateChildren(values).Await(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, toRefResponse(written))
}

func (h *DatabaseHandler) Remove(c echo.Context) error {
	ref, err := h.ref(c)
	if err != nil {
		return response.Error(c, err)
	}

	written, err := ref.RemoveValue().Await(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, toRefResponse(written))
}

func decodeValue(c echo.Context) (interface{}, error) {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()

	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, errors.BadRequest("Request body must be JSON", err)
	}
	return value, nil
}
