package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	fbstorage "firebase.google.com/go/v4/storage"

	"rxfirebase/internal/domain/entity"
	"rxfirebase/pkg/logger"
)

// uploadChunkSize bounds how often upload progress is reported.
const uploadChunkSize = 256 * 1024

// CloudStorageClient stores objects in the Firebase project's default
// bucket.
type CloudStorageClient struct {
	bucket *storage.BucketHandle
}

func NewCloudStorageClient(ctx context.Context, client *fbstorage.Client, corsOrigins []string) (*CloudStorageClient, error) {
	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("failed to open default bucket: %w", err)
	}

	storageClient := &CloudStorageClient{bucket: bucket}

	if len(corsOrigins) > 0 {
		if err := storageClient.setBucketCORS(ctx, corsOrigins); err != nil {
			logger.Warn("Failed to set CORS configuration: %v", err)
		}
	}

	return storageClient, nil
}

func (c *CloudStorageClient) setBucketCORS(ctx context.Context, origins []string) error {
	corsConfig := storage.CORS{
		MaxAge:          time.Hour,
		Methods:         []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		Origins:         origins,
		ResponseHeaders: []string{"Content-Type", "x-goog-resumable"},
	}

	bucketAttrs, err := c.bucket.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket attributes: %w", err)
	}

	if len(bucketAttrs.CORS) == 0 {
		_, err := c.bucket.Update(ctx, storage.BucketAttrsToUpdate{
			CORS: []storage.CORS{corsConfig},
		})
		if err != nil {
			return fmt.Errorf("failed to update bucket CORS: %w", err)
		}
	}

	return nil
}

// Put streams data through a resumable upload. progress receives the bytes
// acknowledged by the server after each chunk.
func (c *CloudStorageClient) Put(ctx context.Context, path string, data io.Reader, metadata *entity.ObjectMetadata, progress func(int64)) (*entity.ObjectMetadata, error) {
	wc := c.bucket.Object(path).NewWriter(ctx)
	wc.ChunkSize = uploadChunkSize
	if progress != nil {
		wc.ProgressFunc = progress
	}
	if metadata != nil {
		wc.ContentType = metadata.ContentType
		wc.CacheControl = metadata.CacheControl
		wc.ContentDisposition = metadata.ContentDisposition
		wc.Metadata = metadata.Custom
	}

	if _, err := io.Copy(wc, data); err != nil {
		wc.Close()
		return nil, fmt.Errorf("failed to upload %s: %w", path, err)
	}
	if err := wc.Close(); err != nil {
		return nil, err
	}

	return toObjectMetadata(wc.Attrs()), nil
}

// Get fails when the object is larger than maxSize.
func (c *CloudStorageClient) Get(ctx context.Context, path string, maxSize int64) ([]byte, error) {
	r, err := c.bucket.Object(path).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if r.Attrs.Size > maxSize {
		return nil, fmt.Errorf("object %s is %d bytes, more than the %d allowed", path, r.Attrs.Size, maxSize)
	}
	return readLimited(r, maxSize)
}

// WriteToFile downloads into a temporary file next to localPath and renames
// it into place, so localPath never holds a partial object.
func (c *CloudStorageClient) WriteToFile(ctx context.Context, path, localPath string) (string, error) {
	r, err := c.bucket.Object(path).NewReader(ctx)
	if err != nil {
		return "", err
	}
	defer r.Close()

	return writeAtomically(localPath, r)
}

func (c *CloudStorageClient) Attrs(ctx context.Context, path string) (*entity.ObjectMetadata, error) {
	attrs, err := c.bucket.Object(path).Attrs(ctx)
	if err != nil {
		return nil, err
	}
	return toObjectMetadata(attrs), nil
}

func (c *CloudStorageClient) Delete(ctx context.Context, path string) error {
	return c.bucket.Object(path).Delete(ctx)
}

func (c *CloudStorageClient) SignedURL(path string, ttl time.Duration) (string, error) {
	url, err := c.bucket.SignedURL(path, &storage.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
		Scheme:  storage.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return url, nil
}

func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("object is larger than the %d bytes allowed", maxSize)
	}
	return data, nil
}

func writeAtomically(localPath string, r io.Reader) (string, error) {
	dir := filepath.Dir(localPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(localPath)+"-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), localPath); err != nil {
		return "", err
	}
	return localPath, nil
}

func toObjectMetadata(attrs *storage.ObjectAttrs) *entity.ObjectMetadata {
	if attrs == nil {
		return nil
	}
	return &entity.ObjectMetadata{
		Bucket:             attrs.Bucket,
		FullPath:           attrs.Name,
		Name:               filepath.Base(attrs.Name),
		ContentType:        attrs.ContentType,
		CacheControl:       attrs.CacheControl,
		ContentDisposition: attrs.ContentDisposition,
		Size:               attrs.Size,
		MD5Hash:            attrs.MD5,
		Generation:         attrs.Generation,
		Custom:             attrs.Metadata,
		Created:            attrs.Created,
		Updated:            attrs.Updated,
	}
}
