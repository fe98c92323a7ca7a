package service

import (
	"context"
	"io"
	"time"

	"rxfirebase/internal/domain/entity"
)

// ObjectStore is the storage surface of the vendor SDK. Paths are relative
// to the bucket root. Cancelling ctx aborts a transfer in flight.
type ObjectStore interface {
	// Put stores data at path. progress, when non-nil, receives the running
	// count of bytes sent.
	Put(ctx context.Context, path string, data io.Reader, metadata *entity.ObjectMetadata, progress func(int64)) (*entity.ObjectMetadata, error)
	// Get reads the whole object, failing when it is larger than maxSize.
	Get(ctx context.Context, path string, maxSize int64) ([]byte, error)
	// WriteToFile downloads the object to localPath and returns the path
	// written.
	WriteToFile(ctx context.Context, path, localPath string) (string, error)
	Attrs(ctx context.Context, path string) (*entity.ObjectMetadata, error)
	Delete(ctx context.Context, path string) error
	SignedURL(path string, ttl time.Duration) (string, error)
}
