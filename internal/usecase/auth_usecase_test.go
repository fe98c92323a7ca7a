package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxfirebase/internal/domain/entity"
	apperrors "rxfirebase/pkg/errors"
	"rxfirebase/pkg/stream"
)

const waitFor = time.Second

func newTestSession(auth *fakeAuth, opts SessionOptions) *Session {
	return NewSession(auth, newFakeDatabase(), &fakeStore{}, opts)
}

func TestEmptyCredentialsFailWithoutVendorCall(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		call     func(s *Session, email, password string) *stream.Stream[*entity.User]
	}{
		{"sign in empty email", "", "secret", (*Session).SignInWithEmail},
		{"sign in empty password", "a@b.c", "", (*Session).SignInWithEmail},
		{"create empty email", "", "secret", (*Session).CreateUser},
		{"create empty password", "a@b.c", "", (*Session).CreateUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{}
			s := newTestSession(auth, SessionOptions{})

			values, err := tt.call(s, tt.email, tt.password).Collect(context.Background())

			assert.Empty(t, values)
			assert.True(t, apperrors.Is(err, apperrors.CodeAuthDataNotValid))
			assert.Equal(t, int32(0), auth.calls.Load())
			assert.Nil(t, s.User())
		})
	}
}

func TestSignInWithEmailSetsCurrentUser(t *testing.T) {
	s := newTestSession(&fakeAuth{}, SessionOptions{})

	users, err := s.SignInWithEmail("ada@example.com", "pw").Collect(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "uid-ada@example.com", users[0].UID)
	assert.Equal(t, "uid-ada@example.com", s.UserID())
	assert.Equal(t, "ada@example.com", s.User().Email)
}

func TestSignInVendorErrorFailsOnce(t *testing.T) {
	vendor := errors.New("INVALID_PASSWORD")
	auth := &fakeAuth{
		signInFn: func(ctx context.Context, email, password string) (*entity.User, error) {
			return &entity.User{UID: "ignored"}, vendor
		},
	}
	s := newTestSession(auth, SessionOptions{})

	users, err := s.SignInWithEmail("ada@example.com", "wrong").Collect(context.Background())

	assert.Empty(t, users)
	assert.True(t, apperrors.Is(err, apperrors.CodeVendor))
	assert.ErrorIs(t, err, vendor)
	assert.Contains(t, err.Error(), "INVALID_PASSWORD")
	assert.Equal(t, "", s.UserID())
}

func TestSignInWithoutUserFails(t *testing.T) {
	auth := &fakeAuth{
		idpFn: func(ctx context.Context, credential entity.Credential) (*entity.User, error) {
			return nil, nil
		},
	}
	s := newTestSession(auth, SessionOptions{})

	_, err := s.SignInWithCredential(entity.Credential{ProviderID: "google.com", IDToken: "t"}).Await(context.Background())

	assert.True(t, apperrors.Is(err, apperrors.CodeVendor))
	assert.Nil(t, s.User())
}

func TestSignInWithCredentialAndCustomToken(t *testing.T) {
	s := newTestSession(&fakeAuth{}, SessionOptions{})

	user, err := s.SignInWithCredential(entity.Credential{ProviderID: "google.com", IDToken: "t"}).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "google.com", user.ProviderID)

	user, err = s.SignInWithCustomToken("custom-token").Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "custom-user", s.UserID())
	assert.Equal(t, "custom-user", user.UID)
}

func TestCreateUserSignsIn(t *testing.T) {
	s := newTestSession(&fakeAuth{}, SessionOptions{})

	user, err := s.CreateUser("new@example.com", "pw").Await(context.Background())

	require.NoError(t, err)
	assert.True(t, user.IsNewUser)
	assert.Equal(t, user.UID, s.UserID())
}

func TestUnsubscribeCancelsPendingSignIn(t *testing.T) {
	blocker := newBlocker()
	auth := &fakeAuth{
		signInFn: func(ctx context.Context, email, password string) (*entity.User, error) {
			return nil, blocker.wait(ctx)
		},
	}
	s := newTestSession(auth, SessionOptions{})

	sub := s.SignInWithEmail("ada@example.com", "pw").Subscribe(context.Background())
	<-blocker.started
	sub.Unsubscribe()

	<-sub.Done()
	assert.ErrorIs(t, sub.Err(), context.Canceled)
	assert.Eventually(t, func() bool { return blocker.cancelled.Load() == 1 }, waitFor, time.Millisecond)
	assert.Nil(t, s.User())
}

func TestLateSignInAfterUnsubscribeKeepsSessionSignedOut(t *testing.T) {
	release := make(chan struct{})
	returned := make(chan struct{})
	auth := &fakeAuth{
		signInFn: func(ctx context.Context, email, password string) (*entity.User, error) {
			<-release
			defer close(returned)
			return &entity.User{UID: "late"}, nil
		},
	}
	s := newTestSession(auth, SessionOptions{})

	var states []entity.AuthState
	var mu sync.Mutex
	handle := s.AddStateDidChangeListener(func(state entity.AuthState) {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})
	defer s.RemoveStateDidChangeListener(handle)

	sub := s.SignInWithEmail("ada@example.com", "pw").Subscribe(context.Background())
	sub.Unsubscribe()
	<-sub.Done()
	close(release)
	<-returned

	assert.ErrorIs(t, sub.Err(), context.Canceled)
	assert.Never(t, func() bool { return s.UserID() != "" }, 50*time.Millisecond, time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	for _, state := range states {
		assert.False(t, state.SignedIn())
	}
}

func TestSendPasswordReset(t *testing.T) {
	var sentTo string
	auth := &fakeAuth{
		resetFn: func(ctx context.Context, email string) error {
			sentTo = email
			return nil
		},
	}
	s := newTestSession(auth, SessionOptions{})

	values, err := s.SendPasswordReset("ada@example.com").Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, values, 1)
	assert.Equal(t, "ada@example.com", sentTo)

	auth.resetFn = func(ctx context.Context, email string) error { return errors.New("EMAIL_NOT_FOUND") }
	_, err = s.SendPasswordReset("nobody@example.com").Await(context.Background())
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "EMAIL_NOT_FOUND", appErr.Message)
}

func TestAuthStateDidChangeFollowsSession(t *testing.T) {
	s := newTestSession(&fakeAuth{}, SessionOptions{})

	sub := s.AuthStateDidChange().Subscribe(context.Background())

	first := <-sub.Values()
	assert.False(t, first.SignedIn())

	_, err := s.SignInWithEmail("ada@example.com", "pw").Await(context.Background())
	require.NoError(t, err)
	signedIn := <-sub.Values()
	require.True(t, signedIn.SignedIn())
	assert.Equal(t, "uid-ada@example.com", signedIn.User.UID)

	s.SignOut(context.Background())
	signedOut := <-sub.Values()
	assert.False(t, signedOut.SignedIn())

	sub.Unsubscribe()
	assert.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.listeners) == 0
	}, waitFor, time.Millisecond)
}

func TestNewListenerSeesCurrentUser(t *testing.T) {
	s := newTestSession(&fakeAuth{}, SessionOptions{})
	_, err := s.SignInWithEmail("ada@example.com", "pw").Await(context.Background())
	require.NoError(t, err)

	state, err := s.AuthStateDidChange().First(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "uid-ada@example.com", state.User.UID)
}

func TestSignOutRevokesAndPublishesFailure(t *testing.T) {
	var revoked string
	auth := &fakeAuth{
		revokeFn: func(ctx context.Context, uid string) error {
			revoked = uid
			return errors.New("USER_NOT_FOUND")
		},
	}
	s := newTestSession(auth, SessionOptions{RevokeOnSignOut: true})
	_, err := s.SignInWithEmail("ada@example.com", "pw").Await(context.Background())
	require.NoError(t, err)

	errs := s.Errors().Subscribe(context.Background())
	defer errs.Unsubscribe()

	s.SignOut(context.Background())

	assert.Nil(t, s.User())
	assert.Equal(t, "uid-ada@example.com", revoked)
	select {
	case err := <-errs.Values():
		assert.True(t, apperrors.Is(err, apperrors.CodeVendor))
		assert.Contains(t, err.Error(), "USER_NOT_FOUND")
	case <-time.After(waitFor):
		t.Fatal("sign out failure was not published")
	}
}

func TestSignOutWhileSignedOutIsNoop(t *testing.T) {
	auth := &fakeAuth{}
	s := newTestSession(auth, SessionOptions{RevokeOnSignOut: true, ClientID: "client-1"})

	s.SignOut(context.Background())

	assert.Equal(t, int32(0), auth.calls.Load())
	assert.Equal(t, "client-1", s.ClientID())
}

func TestResumeAdoptsVerifiedUser(t *testing.T) {
	auth := &fakeAuth{}
	s := newTestSession(auth, SessionOptions{RevokeOnSignOut: true})

	s.Resume(&entity.User{})
	assert.Nil(t, s.User())

	s.Resume(&entity.User{UID: "uid-9"})
	assert.Equal(t, "uid-9", s.UserID())

	s.SignOut(context.Background())
	assert.Equal(t, int32(1), auth.calls.Load())
	assert.Nil(t, s.User())
}
