package handler

import (
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"rxfirebase/pkg/errors"
	"rxfirebase/pkg/logger"
)

// UserRoot is the top level node every caller's data lives under. The
// gateway runs on admin credentials, so a caller may only reach paths below
// UserRoot/<own uid>, in the database and in the bucket alike.
const UserRoot = "users"

// ownedPath returns the cleaned wildcard path of the request, or
// PERMISSION_DENIED when it is outside the caller's own subtree.
func ownedPath(c echo.Context) (string, error) {
	uid, err := currentUID(c)
	if err != nil {
		return "", err
	}

	cleaned := strings.Trim(path.Clean("/"+c.Param("*")), "/")
	segments := strings.Split(cleaned, "/")
	if len(segments) < 2 || segments[0] != UserRoot || segments[1] != uid {
		logger.Warn("User %s denied access to /%s", uid, cleaned)
		return "", errors.Permission()
	}
	return cleaned, nil
}
