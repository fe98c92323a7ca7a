package firebase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"firebase.google.com/go/v4/db"

	"rxfirebase/internal/domain/service"
	"rxfirebase/pkg/logger"
)

// realtimeRef is the part of *db.Ref used by the backend.
type realtimeRef interface {
	Set(ctx context.Context, v interface{}) error
	Update(ctx context.Context, v map[string]interface{}) error
	Delete(ctx context.Context) error
	Get(ctx context.Context, v interface{}) error
	GetWithETag(ctx context.Context, v interface{}) (string, error)
	GetIfChanged(ctx context.Context, etag string, v interface{}) (bool, string, error)
}

// RealtimeDatabase implements the database backend on the Realtime
// Database REST client. The Admin SDK has no streaming listeners, so Listen
// polls with ETags and only calls back when the data changed.
type RealtimeDatabase struct {
	ref      func(path string) realtimeRef
	interval time.Duration
}

func NewRealtimeDatabase(client *db.Client, interval time.Duration) *RealtimeDatabase {
	return &RealtimeDatabase{
		ref:      func(path string) realtimeRef { return client.NewRef(path) },
		interval: interval,
	}
}

func (d *RealtimeDatabase) Set(ctx context.Context, path string, value interface{}) error {
	return d.ref("/"+path).Set(ctx, value)
}

func (d *RealtimeDatabase) Update(ctx context.Context, path string, values map[string]interface{}) error {
	return d.ref("/"+path).Update(ctx, values)
}

func (d *RealtimeDatabase) Delete(ctx context.Context, path string) error {
	return d.ref("/"+path).Delete(ctx)
}

func (d *RealtimeDatabase) Get(ctx context.Context, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := d.ref("/"+path).Get(ctx, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	return raw, nil
}

func (d *RealtimeDatabase) Listen(path string, onValue func(json.RawMessage), onCancel func(error)) service.ListenerHandle {
	ctx, cancel := context.WithCancel(context.Background())
	l := &cancelListener{cancel: cancel}
	go l.poll(ctx, d.ref("/"+path), d.interval, path, onValue, onCancel)
	return l
}

type cancelListener struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (l *cancelListener) Remove() {
	l.once.Do(l.cancel)
}

func (l *cancelListener) poll(ctx context.Context, ref realtimeRef, interval time.Duration, path string, onValue func(json.RawMessage), onCancel func(error)) {
	fail := func(err error) {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("Listener on /%s cancelled: %v", path, err)
		onCancel(err)
	}

	var raw json.RawMessage
	etag, err := ref.GetWithETag(ctx, &raw)
	if err != nil {
		fail(err)
		return
	}
	if ctx.Err() != nil {
		return
	}
	onValue(nullIfEmpty(raw))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var next json.RawMessage
		changed, newETag, err := ref.GetIfChanged(ctx, etag, &next)
		if err != nil {
			fail(err)
			return
		}
		if !changed || ctx.Err() != nil {
			continue
		}
		etag = newETag
		onValue(nullIfEmpty(next))
	}
}

func nullIfEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
