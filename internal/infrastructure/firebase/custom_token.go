package firebase

import (
	"context"

	"google.golang.org/api/identitytoolkit/v3"

	"rxfirebase/internal/domain/entity"
)

// SignInWithCustomToken exchanges a token minted by a trusted server for an
// ID token, then loads the profile of the user it was issued to.
func (f *FirebaseAuthClient) SignInWithCustomToken(ctx context.Context, token string) (*entity.User, error) {
	resp, err := f.toolkit.VerifyCustomToken(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyCustomTokenRequest{
		Token:             token,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	verified, err := f.client.VerifyIDToken(ctx, resp.IdToken)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		UID:          verified.UID,
		ProviderID:   "custom",
		IsNewUser:    resp.IsNewUser,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiresAt(resp.ExpiresIn),
	}

	record, err := f.client.GetUser(ctx, verified.UID)
	if err != nil {
		return nil, err
	}
	if record.UserInfo != nil {
		user.Email = record.Email
		user.DisplayName = record.DisplayName
		user.PhotoURL = record.PhotoURL
	}
	user.EmailVerified = record.EmailVerified
	return user, nil
}
