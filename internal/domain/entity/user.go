package entity

import (
	"time"
)

// User is an authenticated identity together with the tokens of its session.
type User struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email,omitempty"`
	DisplayName   string    `json:"display_name,omitempty"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	ProviderID    string    `json:"provider_id,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	IsNewUser     bool      `json:"is_new_user,omitempty"`
	IDToken       string    `json:"id_token,omitempty"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

// Credential is an identity provider assertion used to sign in, e.g. a
// Google ID token or a Facebook access token.
type Credential struct {
	ProviderID  string `json:"provider_id"`
	IDToken     string `json:"id_token,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	Secret      string `json:"secret,omitempty"`
	RequestURI  string `json:"request_uri,omitempty"`
}

// AuthState is delivered to auth state listeners. User is nil when signed out.
type AuthState struct {
	User *User `json:"user"`
}

func (s AuthState) SignedIn() bool {
	return s.User != nil
}
