package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"rxfirebase/internal/domain/entity"
	"rxfirebase/internal/domain/service"
	"rxfirebase/pkg/errors"
	"rxfirebase/pkg/logger"
	"rxfirebase/pkg/stream"
)

const defaultDownloadMaxSize int64 = 1024 * 1024

type SessionOptions struct {
	ClientID        string
	RevokeOnSignOut bool
	DownloadMaxSize int64
}

// Session bundles the vendor handles shared by every adapter: the auth
// provider, the database root, the storage root and the signed in user.
// database and storage may be nil; operations on them then fail with
// PERMISSION_DENIED.
type Session struct {
	auth     service.AuthProvider
	database service.DatabaseBackend
	storage  service.ObjectStore
	opts     SessionOptions

	mu        sync.RWMutex
	user      *entity.User
	listeners map[string]*stream.Mailbox[entity.AuthState]

	errors *stream.Subject[error]
}

func NewSession(auth service.AuthProvider, database service.DatabaseBackend, storage service.ObjectStore, opts SessionOptions) *Session {
	if opts.DownloadMaxSize <= 0 {
		opts.DownloadMaxSize = defaultDownloadMaxSize
	}
	return &Session{
		auth:      auth,
		database:  database,
		storage:   storage,
		opts:      opts,
		listeners: make(map[string]*stream.Mailbox[entity.AuthState]),
		errors:    stream.NewSubject[error](),
	}
}

func (s *Session) ClientID() string {
	return s.opts.ClientID
}

// UserID is empty while signed out.
func (s *Session) UserID() string {
	if u := s.User(); u != nil {
		return u.UID
	}
	return ""
}

// User returns a copy of the signed in user, nil while signed out.
func (s *Session) User() *entity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Errors streams the failures of operations that have no stream of their
// own. Right now that is only SignOut.
func (s *Session) Errors() *stream.Stream[error] {
	return s.errors.Stream()
}

// SignOut forgets the current user and notifies auth state listeners. When
// configured it also revokes the user's refresh tokens; a failure there is
// published on Errors.
func (s *Session) SignOut(ctx context.Context) {
	s.mu.Lock()
	user := s.user
	s.user = nil
	if user != nil {
		s.notifyLocked()
	}
	s.mu.Unlock()

	if user == nil {
		return
	}
	logger.Info("Signed out user %s", user.UID)

	if !s.opts.RevokeOnSignOut {
		return
	}
	if err := s.auth.RevokeRefreshTokens(ctx, user.UID); err != nil {
		logger.Error("Failed to revoke refresh tokens for %s: %v", user.UID, err)
		s.errors.Publish(errors.Translate(err))
	}
}

// AddStateDidChangeListener registers fn and calls it with the current state
// right away, then after every sign in and sign out. Calls happen on a
// goroutine owned by the listener, in order.
func (s *Session) AddStateDidChangeListener(fn func(entity.AuthState)) string {
	handle := uuid.NewString()
	mb := stream.NewMailbox(fn)

	s.mu.Lock()
	s.listeners[handle] = mb
	mb.Post(entity.AuthState{User: s.copyUserLocked()})
	s.mu.Unlock()

	logger.Debug("Auth state listener %s added", handle)
	return handle
}

func (s *Session) RemoveStateDidChangeListener(handle string) {
	s.mu.Lock()
	mb, ok := s.listeners[handle]
	delete(s.listeners, handle)
	s.mu.Unlock()

	if ok {
		mb.Close()
		logger.Debug("Auth state listener %s removed", handle)
	}
}

// Resume adopts a user that signed in elsewhere, such as the owner of an ID
// token verified by the gateway, and notifies listeners.
func (s *Session) Resume(user *entity.User) {
	if user == nil || user.UID == "" {
		return
	}
	u := *user
	s.setUser(&u)
}

func (s *Session) setUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	s.notifyLocked()
}

func (s *Session) notifyLocked() {
	for _, mb := range s.listeners {
		mb.Post(entity.AuthState{User: s.copyUserLocked()})
	}
}

func (s *Session) copyUserLocked() *entity.User {
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Database returns the root of the database tree.
func (s *Session) Database() *DatabaseRef {
	return &DatabaseRef{backend: s.database}
}

// Storage returns the root of the storage bucket.
func (s *Session) Storage() *StorageRef {
	return &StorageRef{store: s.storage, maxSize: s.opts.DownloadMaxSize}
}

// Publish writes object at a path relative to the database root.
func (s *Session) Publish(object interface{}, atPath string) *stream.Stream[*DatabaseRef] {
	if s.database == nil {
		return stream.Fail[*DatabaseRef](errors.Permission())
	}
	return s.Database().Child(atPath).SetValue(object, false)
}
