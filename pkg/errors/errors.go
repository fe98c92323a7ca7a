package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

const (
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeAuthDataNotValid = "AUTH_DATA_NOT_VALID"
	CodePermission       = "PERMISSION_DENIED"
	CodeDownload         = "DOWNLOAD_FAILED"
	CodeVendor           = "VENDOR_ERROR"

	CodeBadRequest      = "BAD_REQUEST"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeInternal        = "INTERNAL_ERROR"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotAuthenticated() *AppError {
	return New(CodeNotAuthenticated, "Not authenticated", http.StatusUnauthorized, nil)
}

func AuthDataNotValid() *AppError {
	return New(CodeAuthDataNotValid, "Authentication data is not valid", http.StatusBadRequest, nil)
}

func Permission() *AppError {
	return New(CodePermission, "permission denied", http.StatusForbidden, nil)
}

func Download(err error) *AppError {
	return New(CodeDownload, "download error", http.StatusBadGateway, err)
}

// Custom carries a vendor message verbatim.
func Custom(message string, err error) *AppError {
	return New(CodeVendor, message, http.StatusBadGateway, err)
}

// Translate wraps a vendor error in the catch-all code. Errors that already
// belong to the taxonomy, and nil, pass through.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return Custom(VendorMessage(err), err)
}

// VendorMessage extracts the human readable message of a vendor error.
// Google API errors carry it separately from the status line.
func VendorMessage(err error) string {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// StatusOf returns the HTTP status of err, 500 for anything outside the
// taxonomy.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
