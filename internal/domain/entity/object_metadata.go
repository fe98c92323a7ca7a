package entity

import (
	"time"
)

// ObjectMetadata describes a stored object. On upload only ContentType,
// CacheControl, ContentDisposition and Custom are read.
type ObjectMetadata struct {
	Bucket             string            `json:"bucket,omitempty"`
	FullPath           string            `json:"full_path"`
	Name               string            `json:"name"`
	ContentType        string            `json:"content_type,omitempty"`
	CacheControl       string            `json:"cache_control,omitempty"`
	ContentDisposition string            `json:"content_disposition,omitempty"`
	Size               int64             `json:"size"`
	MD5Hash            []byte            `json:"md5_hash,omitempty"`
	Generation         int64             `json:"generation,omitempty"`
	Custom             map[string]string `json:"custom,omitempty"`
	Created            time.Time         `json:"created,omitempty"`
	Updated            time.Time         `json:"updated,omitempty"`
}

// UploadEvent reports upload progress. The final event of an upload carries
// the stored object's metadata.
type UploadEvent struct {
	BytesTransferred int64           `json:"bytes_transferred"`
	TotalBytes       int64           `json:"total_bytes"`
	Metadata         *ObjectMetadata `json:"metadata,omitempty"`
}

func (e UploadEvent) Completed() bool {
	return e.Metadata != nil
}

// Fraction is the share of bytes transferred, 0 when the total is unknown.
func (e UploadEvent) Fraction() float64 {
	if e.TotalBytes <= 0 {
		return 0
	}
	return float64(e.BytesTransferred) / float64(e.TotalBytes)
}
