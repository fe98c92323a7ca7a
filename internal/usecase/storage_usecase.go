package usecase

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"path"
	"strings"
	"time"

	"rxfirebase/internal/domain/entity"
	"rxfirebase/internal/domain/service"
	"rxfirebase/pkg/errors"
	"rxfirebase/pkg/stream"
)

// StorageRef points at an object path in the storage bucket.
type StorageRef struct {
	store   service.ObjectStore
	path    string
	maxSize int64
}

// Child returns the reference at p below r.
func (r *StorageRef) Child(p string) *StorageRef {
	joined := strings.Trim(path.Join(r.path, p), "/")
	if joined == "." {
		joined = ""
	}
	return &StorageRef{store: r.store, path: joined, maxSize: r.maxSize}
}

// Parent is nil at the root.
func (r *StorageRef) Parent() *StorageRef {
	if r.path == "" {
		return nil
	}
	parent := path.Dir(r.path)
	if parent == "." {
		parent = ""
	}
	return &StorageRef{store: r.store, path: parent, maxSize: r.maxSize}
}

func (r *StorageRef) Root() *StorageRef {
	return &StorageRef{store: r.store, maxSize: r.maxSize}
}

func (r *StorageRef) FullPath() string {
	return r.path
}

func (r *StorageRef) Name() string {
	if r.path == "" {
		return ""
	}
	return path.Base(r.path)
}

// Put uploads data and streams its progress. The last event carries the
// stored object's metadata. Unsubscribing cancels the upload.
func (r *StorageRef) Put(data []byte, metadata *entity.ObjectMetadata) *stream.Stream[entity.UploadEvent] {
	if r.store == nil {
		return stream.Fail[entity.UploadEvent](errors.Permission())
	}

	type notification struct {
		event entity.UploadEvent
		err   error
	}

	total := int64(len(data))
	return stream.Create(func(ctx context.Context, e *stream.Emitter[entity.UploadEvent]) stream.Teardown {
		ctx, cancel := context.WithCancel(ctx)
		mb := stream.NewMailbox(func(n notification) {
			if n.err != nil {
				e.Error(n.err)
				return
			}
			if e.Next(n.event) && n.event.Completed() {
				e.Complete()
			}
		})

		go func() {
			stored, err := r.store.Put(ctx, r.path, bytes.NewReader(data), metadata, func(sent int64) {
				mb.Post(notification{event: entity.UploadEvent{BytesTransferred: sent, TotalBytes: total}})
			})
			switch {
			case err != nil:
				mb.Post(notification{err: errors.Custom(errors.VendorMessage(err), err)})
			case stored == nil:
				mb.Post(notification{err: errors.Custom("storage: no metadata", nil)})
			default:
				mb.Post(notification{event: entity.UploadEvent{BytesTransferred: total, TotalBytes: total, Metadata: stored}})
			}
		}()

		return func() {
			cancel()
			mb.Close()
		}
	})
}

// PutData uploads data and emits the stored object's metadata.
func (r *StorageRef) PutData(data []byte, metadata *entity.ObjectMetadata) *stream.Stream[*entity.ObjectMetadata] {
	completed := stream.Filter(r.Put(data, metadata), entity.UploadEvent.Completed)
	return stream.Map(completed, func(ev entity.UploadEvent) (*entity.ObjectMetadata, error) {
		return ev.Metadata, nil
	})
}

// PutJPEG encodes img as JPEG and uploads it. quality ranges over (0, 1];
// anything outside means full quality.
func (r *StorageRef) PutJPEG(img image.Image, quality float64) *stream.Stream[*entity.ObjectMetadata] {
	data, err := EncodeJPEG(img, quality)
	if err != nil {
		return stream.Fail[*entity.ObjectMetadata](err)
	}
	return r.PutData(data, &entity.ObjectMetadata{ContentType: "image/jpeg"})
}

// EncodeJPEG maps quality from (0, 1] to the encoder's 1..100 scale.
func EncodeJPEG(img image.Image, quality float64) ([]byte, error) {
	if img == nil {
		return nil, errors.Custom("conversion error", nil)
	}
	if quality <= 0 || quality > 1 {
		quality = 1
	}
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, errors.Custom("conversion error", err)
	}
	return buf.Bytes(), nil
}

// DownloadData reads the object into memory. maxSize <= 0 uses the session
// default; larger objects fail. Unsubscribing cancels the download.
func (r *StorageRef) DownloadData(maxSize int64) *stream.Stream[[]byte] {
	if r.store == nil {
		return stream.Fail[[]byte](errors.Permission())
	}
	if maxSize <= 0 {
		maxSize = r.maxSize
	}
	return single(func(ctx context.Context) ([]byte, error) {
		data, err := r.store.Get(ctx, r.path, maxSize)
		if err != nil {
			return nil, errors.Custom(errors.VendorMessage(err), err)
		}
		if data == nil {
			return nil, errors.Custom("storage: no data", nil)
		}
		return data, nil
	})
}

// DownloadImage downloads and decodes a JPEG, PNG or GIF object.
func (r *StorageRef) DownloadImage() *stream.Stream[image.Image] {
	return stream.Map(r.DownloadData(0), func(data []byte) (image.Image, error) {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Custom("image conversion error", err)
		}
		return img, nil
	})
}

// DownloadTo writes the object to localPath. Unsubscribing cancels the
// download.
func (r *StorageRef) DownloadTo(localPath string) *stream.Stream[struct{}] {
	if r.store == nil {
		return stream.Fail[struct{}](errors.Permission())
	}
	return single(func(ctx context.Context) (struct{}, error) {
		written, err := r.store.WriteToFile(ctx, r.path, localPath)
		if err != nil {
			return struct{}{}, errors.Custom(errors.VendorMessage(err), err)
		}
		if written == "" {
			return struct{}{}, errors.Download(nil)
		}
		return struct{}{}, nil
	})
}

func (r *StorageRef) Metadata() *stream.Stream[*entity.ObjectMetadata] {
	if r.store == nil {
		return stream.Fail[*entity.ObjectMetadata](errors.Permission())
	}
	return single(func(ctx context.Context) (*entity.ObjectMetadata, error) {
		return r.store.Attrs(ctx, r.path)
	})
}

// DownloadURL emits a URL granting read access for ttl.
func (r *StorageRef) DownloadURL(ttl time.Duration) *stream.Stream[string] {
	if r.store == nil {
		return stream.Fail[string](errors.Permission())
	}
	return single(func(ctx context.Context) (string, error) {
		return r.store.SignedURL(r.path, ttl)
	})
}

func (r *StorageRef) Delete() *stream.Stream[struct{}] {
	if r.store == nil {
		return stream.Fail[struct{}](errors.Permission())
	}
	return single(func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.store.Delete(ctx, r.path)
	})
}
