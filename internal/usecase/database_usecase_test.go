package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rxfirebase/internal/domain/entity"
	apperrors "rxfirebase/pkg/errors"
)

func TestDatabaseRefPaths(t *testing.T) {
	root := (&Session{}).Database()

	ref := root.Child("/users//42/").Child("profile")

	assert.Equal(t, "/users/42/profile", ref.Path())
	assert.Equal(t, "profile", ref.Key())
	assert.Equal(t, "/users/42", ref.Parent().Path())
	assert.Equal(t, "/", ref.Root().Path())
	assert.Nil(t, root.Parent())
	assert.Equal(t, "", root.Key())
}

func TestPushKeysAreOrdered(t *testing.T) {
	a := NewPushKey()
	time.Sleep(2 * time.Millisecond)
	b := NewPushKey()

	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestSetValue(t *testing.T) {
	db := newFakeDatabase()
	s := NewSession(&fakeAuth{}, db, nil, SessionOptions{})

	refs, err := s.Database().Child("users/42").SetValue(map[string]interface{}{"name": "Ada"}, false).Collect(context.Background())

	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "/users/42", refs[0].Path())
	assert.Equal(t, map[string]interface{}{"name": "Ada"}, db.writes["users/42"])
}

func TestSetValueWithAutoID(t *testing.T) {
	db := newFakeDatabase()
	s := NewSession(&fakeAuth{}, db, nil, SessionOptions{})

	ref, err := s.Database().Child("messages").SetValue("hello", true).Await(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/messages", ref.Parent().Path())
	assert.NotEmpty(t, ref.Key())
	assert.Equal(t, "hello", db.writes["messages/"+ref.Key()])
}

func TestSetValueVendorError(t *testing.T) {
	db := newFakeDatabase()
	db.setErr = errors.New("Permission denied")
	s := NewSession(&fakeAuth{}, db, nil, SessionOptions{})

	refs, err := s.Database().Child("locked").SetValue(1, false).Collect(context.Background())

	assert.Empty(t, refs)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeVendor, appErr.Code)
	assert.Equal(t, "Permission denied", appErr.Message)
}

func TestUpdateAndRemove(t *testing.T) {
	db := newFakeDatabase()
	s := NewSession(&fakeAuth{}, db, nil, SessionOptions{})
	ref := s.Database().Child("users/42")

	_, err := ref.UpdateChildren(map[string]interface{}{"age": 36}).Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 36, db.writes["users/42/age"])

	_, err = ref.Child("age").RemoveValue().Await(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, db.writes, "users/42/age")
}

func TestUnconfiguredDatabaseIsPermissionDenied(t *testing.T) {
	s := NewSession(&fakeAuth{}, nil, nil, SessionOptions{})

	_, err := s.Publish(map[string]string{"a": "b"}, "x").Await(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.CodePermission))

	_, err = s.Database().Child("x").Observe(entity.EventValue).First(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.CodePermission))
}

func TestPublish(t *testing.T) {
	db := newFakeDatabase()
	s := NewSession(&fakeAuth{}, db, nil, SessionOptions{})

	ref, err := s.Publish(true, "flags/enabled").Await(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/flags/enabled", ref.Path())
	assert.Equal(t, true, db.writes["flags/enabled"])
}

func TestObserveValueUntilUnsubscribed(t *testing.T) {
	db := newFakeDatabase()
	s := NewSession(&fakeAuth{}, db, nil, SessionOptions{})

	sub := s.Database().Child("rooms/1").Observe(entity.EventValue).Subscribe(context.Background())
	require.Equal(t, 1, db.active())

	db.emit("rooms/1", `{"title":"one"}`)
	db.emit("rooms/1", `{"title":"two"}`)

	first := <-sub.Values()
	second := <-sub.Values()
	assert.Equal(t, entity.EventValue, first.Event)
	assert.Equal(t, "/rooms/1", first.Path)
	assert.JSONEq(t, `{"title":"one"}`, string(first.Raw))
	assert.JSONEq(t, `{"title":"two"}`, string(second.Raw))

	sub.Unsubscribe()
	<-sub.Done()
	assert.Eventually(t, func() bool { return db.active() == 0 }, waitFor, time.Millisecond)
	assert.Equal(t, int32(1), db.listener(0).removed.Load())
	assert.ErrorIs(t, sub.Err(), context.Canceled)
}

func TestObserveChildEvents(t *testing.T) {
	db := newFakeDatabase()
	s := NewSession(&fakeAuth{}, db, nil, SessionOptions{})
	ref := s.Database().Child("users")

	added := ref.Observe(entity.EventChildAdded).Subscribe(context.Background())
	changed := ref.Observe(entity.EventChildChanged).Subscribe(context.Background())
	removed := ref.Observe(entity.EventChildRemoved).Subscribe(context.Background())
	defer added.Unsubscribe()
	defer changed.Unsubscribe()
	defer removed.Unsubscribe()

	db.emit("users", `{"b": {"n": 2}, "a": {"n": 1}}`)

	a := <-added.Values()
	b := <-added.Values()
	assert.Equal(t, "a", a.Key)
	assert.Equal(t, "/users/a", a.Path)
	assert.Equal(t, "b", b.Key)

	db.emit("users", `{"a": {"n": 10}, "c": {"n": 3}}`)

	c := <-added.Values()
	assert.Equal(t, "c", c.Key)

	ch := <-changed.Values()
	assert.Equal(t, "a", ch.Key)
	assert.JSONEq(t, `{"n":10}`, string(ch.Raw))

	rm := <-removed.Values()
	assert.Equal(t, "b", rm.Key)
	assert.JSONEq(t, `{"n":2}`, string(rm.Raw))
	assert.Equal(t, entity.EventChildRemoved, rm.Event)
}

func TestObserveListenerCancelledByVendor(t *testing.T) {
	db := newFakeDatabase()
	s := NewSession(&fakeAuth{}, db, nil, SessionOptions{})

	sub := s.Database().Child("secret").Observe(entity.EventValue).Subscribe(context.Background())
	db.cancel("secret", errors.New("Permission denied"))

	<-sub.Done()
	var appErr *apperrors.AppError
	require.ErrorAs(t, sub.Err(), &appErr)
	assert.Equal(t, "Permission denied", appErr.Message)
	assert.Eventually(t, func() bool { return db.listener(0).removed.Load() == 1 }, waitFor, time.Millisecond)
}

func TestObserveSingleEvent(t *testing.T) {
	db := newFakeDatabase()
	s := NewSession(&fakeAuth{}, db, nil, SessionOptions{})

	sub := s.Database().Child("config").ObserveSingleEvent(entity.EventValue).Subscribe(context.Background())
	db.emit("config", `{"v":1}`)
	db.emit("config", `{"v":2}`)

	var got []*entity.DataSnapshot
	for snap := range sub.Values() {
		got = append(got, snap)
	}

	require.NoError(t, sub.Err())
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"v":1}`, string(got[0].Raw))
	assert.Eventually(t, func() bool { return db.listener(0).removed.Load() == 1 }, waitFor, time.Millisecond)
}

func TestSnapshotDifferHandlesArraysAndNulls(t *testing.T) {
	root := (&Session{}).Database().Child("list")
	d := &snapshotDiffer{ref: root, event: entity.EventChildAdded}

	first := d.next([]byte(`["x", null, "z"]`))
	require.Len(t, first, 2)
	assert.Equal(t, "0", first[0].Key)
	assert.Equal(t, "2", first[1].Key)

	assert.Empty(t, d.next([]byte(`null`)))
	again := d.next([]byte(`{"k": "v"}`))
	require.Len(t, again, 1)
	assert.True(t, strings.HasSuffix(again[0].Path, "/list/k"))
}

func TestObserveRejectsUnsupportedEventType(t *testing.T) {
	db := newFakeDatabase()
	s := NewSession(&fakeAuth{}, db, nil, SessionOptions{})
	ref := s.Database().Child("rooms")

	for _, event := range []entity.EventType{"child_moved", ""} {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		_, err := ref.ObserveSingleEvent(event).Await(ctx)
		cancel()

		assert.True(t, apperrors.Is(err, apperrors.CodeBadRequest), "event %q: %v", event, err)
	}
	assert.Equal(t, 0, db.active())
}

func TestGetValueReadsWithoutListening(t *testing.T) {
	db := newFakeDatabase()
	s := NewSession(&fakeAuth{}, db, nil, SessionOptions{})
	require.NoError(t, db.Set(context.Background(), "rooms/1", map[string]string{"title": "one"}))

	snap, err := s.Database().Child("rooms/1").GetValue().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.EventValue, snap.Event)
	assert.Equal(t, "1", snap.Key)
	assert.JSONEq(t, `{"title":"one"}`, string(snap.Raw))

	missing, err := s.Database().Child("rooms/2").GetValue().Await(context.Background())
	require.NoError(t, err)
	assert.False(t, missing.Exists())

	assert.Empty(t, db.all)

	_, err = NewSession(&fakeAuth{}, nil, nil, SessionOptions{}).Database().Child("x").GetValue().Await(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.CodePermission))
}
