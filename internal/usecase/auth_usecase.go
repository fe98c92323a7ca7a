package usecase

import (
	"context"

	"rxfirebase/internal/domain/entity"
	"rxfirebase/pkg/errors"
	"rxfirebase/pkg/logger"
	"rxfirebase/pkg/stream"
)

// AuthStateDidChange streams the auth state: the current one first, then one
// per sign in or sign out. Unsubscribing removes the listener.
func (s *Session) AuthStateDidChange() *stream.Stream[entity.AuthState] {
	return stream.Create(func(ctx context.Context, e *stream.Emitter[entity.AuthState]) stream.Teardown {
		handle := s.AddStateDidChangeListener(func(state entity.AuthState) {
			e.Next(state)
		})
		return func() {
			s.RemoveStateDidChangeListener(handle)
		}
	})
}

func (s *Session) SignInWithEmail(email, password string) *stream.Stream[*entity.User] {
	if email == "" || password == "" {
		return stream.Fail[*entity.User](errors.AuthDataNotValid())
	}
	return s.signIn("password", func(ctx context.Context) (*entity.User, error) {
		return s.auth.SignInWithPassword(ctx, email, password)
	})
}

func (s *Session) SignInWithCredential(credential entity.Credential) *stream.Stream[*entity.User] {
	return s.signIn(credential.ProviderID, func(ctx context.Context) (*entity.User, error) {
		return s.auth.SignInWithIdP(ctx, credential)
	})
}

func (s *Session) SignInWithCustomToken(token string) *stream.Stream[*entity.User] {
	return s.signIn("custom", func(ctx context.Context) (*entity.User, error) {
		return s.auth.SignInWithCustomToken(ctx, token)
	})
}

// CreateUser registers an email/password account and signs it in.
func (s *Session) CreateUser(email, password string) *stream.Stream[*entity.User] {
	if email == "" || password == "" {
		return stream.Fail[*entity.User](errors.AuthDataNotValid())
	}
	return s.signIn("signup", func(ctx context.Context) (*entity.User, error) {
		return s.auth.CreateUser(ctx, email, password)
	})
}

func (s *Session) SendPasswordReset(email string) *stream.Stream[struct{}] {
	return single(func(ctx context.Context) (struct{}, error) {
		if err := s.auth.SendPasswordResetEmail(ctx, email); err != nil {
			return struct{}{}, errors.Custom(errors.VendorMessage(err), err)
		}
		return struct{}{}, nil
	})
}

// signIn makes a successful result the session's current user before it is
// emitted.
func (s *Session) signIn(method string, call func(ctx context.Context) (*entity.User, error)) *stream.Stream[*entity.User] {
	return single(func(ctx context.Context) (*entity.User, error) {
		user, err := call(ctx)
		if err != nil {
			logger.Warn("Sign in (%s) failed: %v", method, err)
			return nil, err
		}
		if user == nil {
			return nil, errors.Custom("auth: no user", nil)
		}
		// A result that arrives after unsubscribe is dropped.
		if err := ctx.Err(); err != nil {
			logger.Debug("Dropping sign in (%s) of %s after unsubscribe", method, user.UID)
			return nil, err
		}
		s.setUser(user)
		logger.Info("Signed in user %s (%s)", user.UID, method)
		u := *user
		return &u, nil
	})
}
