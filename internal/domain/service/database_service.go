package service

import (
	"context"
	"encoding/json"
)

// DatabaseBackend is the hierarchical database surface of the vendor SDK.
// Paths are slash separated and relative to the database root.
type DatabaseBackend interface {
	Set(ctx context.Context, path string, value interface{}) error
	Update(ctx context.Context, path string, values map[string]interface{}) error
	Delete(ctx context.Context, path string) error
	// Get returns the JSON stored at path, "null" when nothing is.
	Get(ctx context.Context, path string) (json.RawMessage, error)
	// Listen calls onValue with the JSON at path now and after every change,
	// until the handle is removed or onCancel reports that the vendor
	// stopped the listener. Callbacks for one listener are never concurrent.
	Listen(path string, onValue func(json.RawMessage), onCancel func(error)) ListenerHandle
}

// ListenerHandle unregisters a listener. Remove is idempotent.
type ListenerHandle interface {
	Remove()
}
