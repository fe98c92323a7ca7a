package service

import (
	"context"

	"rxfirebase/internal/domain/entity"
)

// AuthProvider is the authentication surface of the vendor SDK.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*entity.User, error)
	SignInWithIdP(ctx context.Context, credential entity.Credential) (*entity.User, error)
	SignInWithCustomToken(ctx context.Context, token string) (*entity.User, error)
	// CreateUser registers the account and returns it signed in.
	CreateUser(ctx context.Context, email, password string) (*entity.User, error)
	SendPasswordResetEmail(ctx context.Context, email string) error
	RevokeRefreshTokens(ctx context.Context, uid string) error
	// VerifyIDToken returns the UID the token was issued to.
	VerifyIDToken(ctx context.Context, idToken string) (string, error)
}
