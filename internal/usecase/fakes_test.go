package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"rxfirebase/internal/domain/entity"
	"rxfirebase/internal/domain/service"
	"rxfirebase/pkg/stream"
)

type fakeAuth struct {
	calls atomic.Int32

	signInFn func(ctx context.Context, email, password string) (*entity.User, error)
	idpFn    func(ctx context.Context, credential entity.Credential) (*entity.User, error)
	customFn func(ctx context.Context, token string) (*entity.User, error)
	createFn func(ctx context.Context, email, password string) (*entity.User, error)
	resetFn  func(ctx context.Context, email string) error
	revokeFn func(ctx context.Context, uid string) error
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*entity.User, error) {
	f.calls.Add(1)
	if f.signInFn != nil {
		return f.signInFn(ctx, email, password)
	}
	return &entity.User{UID: "uid-" + email, Email: email}, nil
}

func (f *fakeAuth) SignInWithIdP(ctx context.Context, credential entity.Credential) (*entity.User, error) {
	f.calls.Add(1)
	if f.idpFn != nil {
		return f.idpFn(ctx, credential)
	}
	return &entity.User{UID: "idp-user", ProviderID: credential.ProviderID}, nil
}

func (f *fakeAuth) SignInWithCustomToken(ctx context.Context, token string) (*entity.User, error) {
	f.calls.Add(1)
	if f.customFn != nil {
		return f.customFn(ctx, token)
	}
	return &entity.User{UID: "custom-user"}, nil
}

func (f *fakeAuth) CreateUser(ctx context.Context, email, password string) (*entity.User, error) {
	f.calls.Add(1)
	if f.createFn != nil {
		return f.createFn(ctx, email, password)
	}
	return &entity.User{UID: "new-" + email, Email: email, IsNewUser: true}, nil
}

func (f *fakeAuth) SendPasswordResetEmail(ctx context.Context, email string) error {
	f.calls.Add(1)
	if f.resetFn != nil {
		return f.resetFn(ctx, email)
	}
	return nil
}

func (f *fakeAuth) RevokeRefreshTokens(ctx context.Context, uid string) error {
	f.calls.Add(1)
	if f.revokeFn != nil {
		return f.revokeFn(ctx, uid)
	}
	return nil
}

func (f *fakeAuth) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	f.calls.Add(1)
	return "", errors.New("not used")
}

type fakeListener struct {
	db       *fakeDatabase
	id       int
	path     string
	mailbox  *stream.Mailbox[json.RawMessage]
	onCancel func(error)
	removed  atomic.Int32
}

func (l *fakeListener) Remove() {
	l.removed.Add(1)
	l.mailbox.Close()
	l.db.mu.Lock()
	delete(l.db.listeners, l.id)
	l.db.mu.Unlock()
}

type fakeDatabase struct {
	mu        sync.Mutex
	writes    map[string]interface{}
	setErr    error
	nextID    int
	listeners map[int]*fakeListener
	all       []*fakeListener
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{
		writes:    make(map[string]interface{}),
		listeners: make(map[int]*fakeListener),
	}
}

func (f *fakeDatabase) Set(ctx context.Context, path string, value interface{}) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes[path] = value
	return nil
}

func (f *fakeDatabase) Update(ctx context.Context, path string, values map[string]interface{}) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range values {
		f.writes[path+"/"+k] = v
	}
	return nil
}

func (f *fakeDatabase) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.writes, path)
	return nil
}

func (f *fakeDatabase) Get(ctx context.Context, path string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.writes[path]
	if !ok {
		return json.RawMessage("null"), nil
	}
	return json.Marshal(v)
}

func (f *fakeDatabase) Listen(path string, onValue func(json.RawMessage), onCancel func(error)) service.ListenerHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := &fakeListener{
		db:       f,
		id:       f.nextID,
		path:     path,
		mailbox:  stream.NewMailbox(onValue),
		onCancel: onCancel,
	}
	f.nextID++
	f.listeners[l.id] = l
	f.all = append(f.all, l)
	return l
}

func (f *fakeDatabase) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *fakeDatabase) listener(i int) *fakeListener {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.all[i]
}

// emit delivers raw to every live listener on path.
func (f *fakeDatabase) emit(path, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.listeners {
		if l.path == path {
			l.mailbox.Post(json.RawMessage(raw))
		}
	}
}

func (f *fakeDatabase) cancel(path string, err error) {
	f.mu.Lock()
	var targets []*fakeListener
	for _, l := range f.listeners {
		if l.path == path {
			targets = append(targets, l)
		}
	}
	f.mu.Unlock()
	for _, l := range targets {
		go l.onCancel(err)
	}
}

type fakeStore struct {
	calls atomic.Int32

	putFn    func(ctx context.Context, path string, data io.Reader, metadata *entity.ObjectMetadata, progress func(int64)) (*entity.ObjectMetadata, error)
	getFn    func(ctx context.Context, path string, maxSize int64) ([]byte, error)
	writeFn  func(ctx context.Context, path, localPath string) (string, error)
	attrsFn  func(ctx context.Context, path string) (*entity.ObjectMetadata, error)
	deleteFn func(ctx context.Context, path string) error
}

func (f *fakeStore) Put(ctx context.Context, path string, data io.Reader, metadata *entity.ObjectMetadata, progress func(int64)) (*entity.ObjectMetadata, error) {
	f.calls.Add(1)
	if f.putFn != nil {
		return f.putFn(ctx, path, data, metadata, progress)
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}
	if progress != nil {
		progress(int64(len(body)))
	}
	out := &entity.ObjectMetadata{FullPath: path, Size: int64(len(body))}
	if metadata != nil {
		out.ContentType = metadata.ContentType
	}
	return out, nil
}

func (f *fakeStore) Get(ctx context.Context, path string, maxSize int64) ([]byte, error) {
	f.calls.Add(1)
	if f.getFn != nil {
		return f.getFn(ctx, path, maxSize)
	}
	return []byte("content of " + path), nil
}

func (f *fakeStore) WriteToFile(ctx context.Context, path, localPath string) (string, error) {
	f.calls.Add(1)
	if f.writeFn != nil {
		return f.writeFn(ctx, path, localPath)
	}
	return localPath, nil
}

func (f *fakeStore) Attrs(ctx context.Context, path string) (*entity.ObjectMetadata, error) {
	f.calls.Add(1)
	if f.attrsFn != nil {
		return f.attrsFn(ctx, path)
	}
	return &entity.ObjectMetadata{FullPath: path}, nil
}

func (f *fakeStore) Delete(ctx context.Context, path string) error {
	f.calls.Add(1)
	if f.deleteFn != nil {
		return f.deleteFn(ctx, path)
	}
	return nil
}

func (f *fakeStore) SignedURL(path string, ttl time.Duration) (string, error) {
	f.calls.Add(1)
	return "https://storage.example/" + path + "?ttl=" + ttl.String(), nil
}

// blockUntilCancelled parks a vendor call until its context is cancelled and
// counts the cancellations it observed.
type blockUntilCancelled struct {
	started   chan struct{}
	cancelled atomic.Int32
	once      sync.Once
}

func newBlocker() *blockUntilCancelled {
	return &blockUntilCancelled{started: make(chan struct{})}
}

func (b *blockUntilCancelled) wait(ctx context.Context) error {
	b.once.Do(func() { close(b.started) })
	<-ctx.Done()
	b.cancelled.Add(1)
	return ctx.Err()
}
