package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		err     *AppError
		code    string
		message string
		status  int
	}{
		{"not authenticated", NotAuthenticated(), CodeNotAuthenticated, "Not authenticated", http.StatusUnauthorized},
		{"auth data", AuthDataNotValid(), CodeAuthDataNotValid, "Authentication data is not valid", http.StatusBadRequest},
		{"permission", Permission(), CodePermission, "permission denied", http.StatusForbidden},
		{"download", Download(nil), CodeDownload, "download error", http.StatusBadGateway},
		{"custom", Custom("conversion error", nil), CodeVendor, "conversion error", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.message, tt.err.Message)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.True(t, Is(tt.err, tt.code))
			assert.Equal(t, tt.code+": "+tt.message, tt.err.Error())
		})
	}
}

func TestTranslateKeepsVendorMessageVerbatim(t *testing.T) {
	vendor := errors.New("EMAIL_NOT_FOUND")

	err := Translate(vendor)

	assert.True(t, Is(err, CodeVendor))
	assert.ErrorIs(t, err, vendor)
	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "EMAIL_NOT_FOUND", appErr.Message)
}

func TestTranslateUsesGoogleAPIMessage(t *testing.T) {
	apiErr := &googleapi.Error{Code: http.StatusBadRequest, Message: "INVALID_PASSWORD"}

	err := Translate(fmt.Errorf("sign in: %w", apiErr))

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_PASSWORD", appErr.Message)
}

func TestTranslatePassesThroughTaxonomy(t *testing.T) {
	perm := Permission()

	assert.Same(t, perm, Translate(perm))
	assert.Nil(t, Translate(nil))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, StatusOf(Permission()))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
}
