package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"rxfirebase/internal/domain/entity"
	"rxfirebase/internal/domain/service"
	"rxfirebase/pkg/errors"
	"rxfirebase/pkg/stream"
)

// DatabaseRef points at a location in the database tree.
type DatabaseRef struct {
	backend  service.DatabaseBackend
	segments []string
}

// Child returns the location at path below r. Empty segments are ignored.
func (r *DatabaseRef) Child(path string) *DatabaseRef {
	segments := append([]string(nil), r.segments...)
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return &DatabaseRef{backend: r.backend, segments: segments}
}

// Parent is nil at the root.
func (r *DatabaseRef) Parent() *DatabaseRef {
	if len(r.segments) == 0 {
		return nil
	}
	return &DatabaseRef{backend: r.backend, segments: r.segments[:len(r.segments)-1]}
}

func (r *DatabaseRef) Root() *DatabaseRef {
	return &DatabaseRef{backend: r.backend}
}

// Key is the last path segment, empty at the root.
func (r *DatabaseRef) Key() string {
	if len(r.segments) == 0 {
		return ""
	}
	return r.segments[len(r.segments)-1]
}

// Path is the absolute location, "/" for the root.
func (r *DatabaseRef) Path() string {
	return "/" + r.relPath()
}

func (r *DatabaseRef) relPath() string {
	return strings.Join(r.segments, "/")
}

func (r *DatabaseRef) String() string {
	return r.Path()
}

// ChildByAutoID returns a child under a fresh key. Keys are time ordered, so
// children created later sort after earlier ones.
func (r *DatabaseRef) ChildByAutoID() *DatabaseRef {
	return r.Child(NewPushKey())
}

// NewPushKey returns a time ordered unique key.
func NewPushKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SetValue writes value at r, or at a fresh auto-id child of r, and emits
// the location written.
func (r *DatabaseRef) SetValue(value interface{}, autoID bool) *stream.Stream[*DatabaseRef] {
	if r.backend == nil {
		return stream.Fail[*DatabaseRef](errors.Permission())
	}
	target := r
	if autoID {
		target = r.ChildByAutoID()
	}
	return single(func(ctx context.Context) (*DatabaseRef, error) {
		if err := r.backend.Set(ctx, target.relPath(), value); err != nil {
			return nil, err
		}
		return target, nil
	})
}

// UpdateChildren merges values into r. Keys may be relative paths.
func (r *DatabaseRef) UpdateChildren(values map[string]interface{}) *stream.Stream[*DatabaseRef] {
	if r.backend == nil {
		return stream.Fail[*DatabaseRef](errors.Permission())
	}
	return single(func(ctx context.Context) (*DatabaseRef, error) {
		if err := r.backend.Update(ctx, r.relPath(), values); err != nil {
			return nil, err
		}
		return r, nil
	})
}

func (r *DatabaseRef) RemoveValue() *stream.Stream[*DatabaseRef] {
	if r.backend == nil {
		return stream.Fail[*DatabaseRef](errors.Permission())
	}
	return single(func(ctx context.Context) (*DatabaseRef, error) {
		if err := r.backend.Delete(ctx, r.relPath()); err != nil {
			return nil, err
		}
		return r, nil
	})
}

// Observe streams the events of the given type at r until unsubscribed,
// which removes the vendor listener. Child events report children in key
// order; the first snapshot reports every existing child as added.
func (r *DatabaseRef) Observe(event entity.EventType) *stream.Stream[*entity.DataSnapshot] {
	if !event.Valid() {
		return stream.Fail[*entity.DataSnapshot](errors.BadRequest(fmt.Sprintf("unsupported event type %q", event), nil))
	}
	if r.backend == nil {
		return stream.Fail[*entity.DataSnapshot](errors.Permission())
	}
	return stream.Create(func(ctx context.Context, e *stream.Emitter[*entity.DataSnapshot]) stream.Teardown {
		differ := &snapshotDiffer{ref: r, event: event}
		handle := r.backend.Listen(r.relPath(), func(raw json.RawMessage) {
			for _, snap := range differ.next(raw) {
				if !e.Next(snap) {
					return
				}
			}
		}, func(err error) {
			e.Error(errors.Translate(err))
		})
		return handle.Remove
	})
}

// GetValue reads the value at r once, without registering a listener.
func (r *DatabaseRef) GetValue() *stream.Stream[*entity.DataSnapshot] {
	if r.backend == nil {
		return stream.Fail[*entity.DataSnapshot](errors.Permission())
	}
	return single(func(ctx context.Context) (*entity.DataSnapshot, error) {
		raw, err := r.backend.Get(ctx, r.relPath())
		if err != nil {
			return nil, err
		}
		return r.snapshot(entity.EventValue, raw), nil
	})
}

// ObserveSingleEvent emits the first event of the given type, then
// completes.
func (r *DatabaseRef) ObserveSingleEvent(event entity.EventType) *stream.Stream[*entity.DataSnapshot] {
	return stream.Take(r.Observe(event), 1)
}

func (r *DatabaseRef) snapshot(event entity.EventType, raw json.RawMessage) *entity.DataSnapshot {
	return &entity.DataSnapshot{
		Event: event,
		Key:   r.Key(),
		Path:  r.Path(),
		Raw:   raw,
	}
}

// snapshotDiffer turns successive value snapshots of one location into
// events of a single type.
type snapshotDiffer struct {
	ref      *DatabaseRef
	event    entity.EventType
	children map[string]json.RawMessage
}

func (d *snapshotDiffer) next(raw json.RawMessage) []*entity.DataSnapshot {
	if d.event == entity.EventValue {
		return []*entity.DataSnapshot{d.ref.snapshot(entity.EventValue, raw)}
	}

	current := childrenOf(raw)
	previous := d.children
	d.children = current

	var out []*entity.DataSnapshot
	switch d.event {
	case entity.EventChildAdded:
		for _, key := range sortedKeys(current) {
			if _, ok := previous[key]; !ok {
				out = append(out, d.ref.Child(key).snapshot(d.event, current[key]))
			}
		}
	case entity.EventChildChanged:
		for _, key := range sortedKeys(current) {
			if old, ok := previous[key]; ok && !bytes.Equal(old, current[key]) {
				out = append(out, d.ref.Child(key).snapshot(d.event, current[key]))
			}
		}
	case entity.EventChildRemoved:
		for _, key := range sortedKeys(previous) {
			if _, ok := current[key]; !ok {
				out = append(out, d.ref.Child(key).snapshot(d.event, previous[key]))
			}
		}
	}
	return out
}

// childrenOf splits a JSON object, or an array keyed by index, into compact
// child values. Anything else has no children.
func childrenOf(raw json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
		for key, value := range obj {
			if c := compact(value); c != nil {
				out[key] = c
			}
		}
		return out
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		for i, value := range arr {
			if c := compact(value); c != nil {
				out[strconv.Itoa(i)] = c
			}
		}
	}
	return out
}

// compact returns nil for JSON null.
func compact(value json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return value
	}
	if bytes.Equal(buf.Bytes(), []byte("null")) {
		return nil
	}
	return buf.Bytes()
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
