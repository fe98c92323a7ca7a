package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"rxfirebase/internal/domain/entity"
	"rxfirebase/internal/usecase"
	"rxfirebase/pkg/errors"
	"rxfirebase/pkg/logger"
	"rxfirebase/pkg/response"
)

const defaultMaxUploadSize = 32 * 1024 * 1024

type StorageHandler struct {
	session     *usecase.Session
	maxFileSize int64
}

func NewStorageHandler(session *usecase.Session) *StorageHandler {
	return &StorageHandler{
		session:     session,
		maxFileSize: defaultMaxUploadSize,
	}
}

type metadataResponse struct {
	*entity.ObjectMetadata
	DownloadURL string `json:"download_url,omitempty"`
}

func (h *StorageHandler) ref(c echo.Context) (*usecase.StorageRef, error) {
	p, err := ownedPath(c)
	if err != nil {
		return nil, err
	}
	return h.session.Storage().Child(p), nil
}

// Upload stores the raw request body. Content-Type and Cache-Control are
// kept as object metadata.
func (h *StorageHandler) Upload(c echo.Context) error {
	ref, err := h.ref(c)
	if err != nil {
		return response.Error(c, err)
	}

	data, err := io.ReadAll(io.LimitReader(c.Request().Body, h.maxFileSize+1))
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read request body", err))
	}
	if int64(len(data)) > h.maxFileSize {
		logger.Warn("File too large: more than %d bytes", h.maxFileSize)
		return response.Error(c, errors.BadRequest(fmt.Sprintf("File size exceeds maximum allowed (%dMB)", h.maxFileSize/(1024*1024)), nil))
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	logger.Debug("Uploading %s: %d bytes, type %s", ref.FullPath(), len(data), contentType)
	meta, err := ref.PutData(data, &entity.ObjectMetadata{
		ContentType:  contentType,
		CacheControl: c.Request().Header.Get("Cache-Control"),
	}).Await(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, meta)
}

// Download returns the object's bytes. max_size overrides the default
// download limit.
func (h *StorageHandler) Download(c echo.Context) error {
	ref, err := h.ref(c)
	if err != nil {
		return response.Error(c, err)
	}

	var maxSize int64
	if raw := c.QueryParam("max_size"); raw != "" {
		maxSize, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || maxSize <= 0 {
			return response.Error(c, errors.BadRequest("max_size must be a positive integer", err))
		}
	}

	data, err := ref.DownloadData(maxSize).Await(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return c.Blob(http.StatusOK, http.DetectContentType(data), data)
}

func (h *StorageHandler) Delete(c echo.Context) error {
	ref, err := h.ref(c)
	if err != nil {
		return response.Error(c, err)
	}

	if _, err := ref.Delete().Await(c.Request().Context()); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"path": ref.FullPath()})
}

// Metadata returns the object's metadata. With url_ttl it also signs a
// download URL valid for that long.
func (h *StorageHandler) Metadata(c echo.Context) error {
	ref, err := h.ref(c)
	if err != nil {
		return response.Error(c, err)
	}

	meta, err := ref.Metadata().Await(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	out := metadataResponse{ObjectMetadata: meta}

	if raw := c.QueryParam("url_ttl"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return response.Error(c, errors.BadRequest("url_ttl must be a positive duration", err))
		}
		out.DownloadURL, err = ref.DownloadURL(ttl).Await(c.Request().Context())
		if err != nil {
			return response.Error(c, err)
		}
	}

	return response.Success(c, out)
}
