package firebase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"rxfirebase/internal/domain/entity"
)

// AdminAuth is the part of the Admin SDK auth client used here.
type AdminAuth interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseAuthClient signs users in through the Identity Toolkit REST API
// with the project's web API key and manages them through the Admin SDK.
type FirebaseAuthClient struct {
	client  AdminAuth
	toolkit *identitytoolkit.RelyingpartyService
}

func NewFirebaseAuthClient(ctx context.Context, client AdminAuth, apiKey string, opts ...option.ClientOption) (*FirebaseAuthClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("firebase API key is required for sign-in")
	}

	svc, err := identitytoolkit.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit client: %w", err)
	}

	return &FirebaseAuthClient{
		client:  client,
		toolkit: svc.Relyingparty,
	}, nil
}

func (f *FirebaseAuthClient) SignInWithPassword(ctx context.Context, email, password string) (*entity.User, error) {
	resp, err := f.toolkit.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	return &entity.User{
		UID:          resp.LocalId,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		PhotoURL:     resp.PhotoUrl,
		ProviderID:   "password",
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiresAt(resp.ExpiresIn),
	}, nil
}

// SignInWithIdP exchanges a federated provider's token for a Firebase
// session. The account is created on first use.
func (f *FirebaseAuthClient) SignInWithIdP(ctx context.Context, credential entity.Credential) (*entity.User, error) {
	body := url.Values{}
	body.Set("providerId", credential.ProviderID)
	if credential.IDToken != "" {
		body.Set("id_token", credential.IDToken)
	}
	if credential.AccessToken != "" {
		body.Set("access_token", credential.AccessToken)
	}
	if credential.Secret != "" {
		body.Set("oauth_token_secret", credential.Secret)
	}

	requestURI := credential.RequestURI
	if requestURI == "" {
		requestURI = "http://localhost"
	}

	resp, err := f.toolkit.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          body.Encode(),
		RequestUri:        requestURI,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if resp.ErrorMessage != "" {
		return nil, fmt.Errorf("%s", resp.ErrorMessage)
	}

	return &entity.User{
		UID:           resp.LocalId,
		Email:         resp.Email,
		DisplayName:   resp.DisplayName,
		PhotoURL:      resp.PhotoUrl,
		ProviderID:    resp.ProviderId,
		EmailVerified: resp.EmailVerified,
		IsNewUser:     resp.IsNewUser,
		IDToken:       resp.IdToken,
		RefreshToken:  resp.RefreshToken,
		ExpiresAt:     expiresAt(resp.ExpiresIn),
	}, nil
}

// CreateUser registers the account with the Admin SDK, then signs it in.
func (f *FirebaseAuthClient) CreateUser(ctx context.Context, email, password string) (*entity.User, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password)

	if _, err := f.client.CreateUser(ctx, params); err != nil {
		return nil, err
	}

	user, err := f.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	user.IsNewUser = true
	return user, nil
}

func (f *FirebaseAuthClient) SendPasswordResetEmail(ctx context.Context, email string) error {
	_, err := f.toolkit.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}).Context(ctx).Do()
	return err
}

func (f *FirebaseAuthClient) RevokeRefreshTokens(ctx context.Context, uid string) error {
	return f.client.RevokeRefreshTokens(ctx, uid)
}

func (f *FirebaseAuthClient) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

func expiresAt(seconds int64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(seconds) * time.Second)
}
