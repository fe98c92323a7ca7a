package handler

import (
	"github.com/labstack/echo/v4"

	"rxfirebase/internal/domain/entity"
	"rxfirebase/internal/usecase"
	"rxfirebase/pkg/errors"
	"rxfirebase/pkg/logger"
	"rxfirebase/pkg/response"
)

// AuthHandler runs every request on a session of its own, so concurrent
// callers never share a current user.
type AuthHandler struct {
	newSession func() *usecase.Session
}

func NewAuthHandler(newSession func() *usecase.Session) *AuthHandler {
	return &AuthHandler{
		newSession: newSession,
	}
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type credentialRequest struct {
	ProviderID  string `json:"provider_id" validate:"required"`
	IDToken     string `json:"id_token" validate:"required_without=AccessToken"`
	AccessToken string `json:"access_token"`
	Secret      string `json:"secret"`
	RequestURI  string `json:"request_uri" validate:"omitempty,url"`
}

type customTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.newSession().SignInWithEmail(req.Email, req.Password).Await(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *AuthHandler) SignInWithCredential(c echo.Context) error {
	var req credentialRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.newSession().SignInWithCredential(entity.Credential{
		ProviderID:  req.ProviderID,
		IDToken:     req.IDToken,
		AccessToken: req.AccessToken,
		Secret:      req.Secret,
		RequestURI:  req.RequestURI,
	}).Await(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *AuthHandler) SignInWithCustomToken(c echo.Context) error {
	var req customTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.newSession().SignInWithCustomToken(req.Token).Await(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.newSession().CreateUser(req.Email, req.Password).Await(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, user)
}

func (h *AuthHandler) SendPasswordReset(c echo.Context) error {
	var req passwordResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	if _, err := h.newSession().SendPasswordReset(req.Email).Await(c.Request().Context()); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"email": req.Email})
}

// SignOut signs the token's owner out. Revocation failures are logged by
// the session and do not fail the request.
func (h *AuthHandler) SignOut(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	session := h.newSession()
	session.Resume(&entity.User{UID: uid})
	session.SignOut(c.Request().Context())

	return response.Success(c, map[string]string{"uid": uid})
}

func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"uid": uid})
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		logger.Debug("Invalid request body: %v", err)
		return errors.BadRequest("Invalid request body", err)
	}
	return c.Validate(req)
}

func currentUID(c echo.Context) (string, error) {
	uid, ok := c.Get("uid").(string)
	if !ok || uid == "" {
		return "", errors.NotAuthenticated()
	}
	return uid, nil
}
