package storage

import (
	"context"
	"io"
	"strings"
)

// PutOptions carries object metadata for uploads. Audio objects are served
// through a CDN, so cache headers are set at write time.
type PutOptions struct {
	ContentType  string
	CacheControl string
}

// Adapter defines the interface for blob store backends
type Adapter interface {
	// Put stores data at the given key
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves data from the given key
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes data at the given key
	Delete(ctx context.Context, key string) error

	// Exists checks if data exists at the given key
	Exists(ctx context.Context, key string) (bool, error)

	// List returns keys matching the given prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Close cleans up any resources
	Close() error
}

// PublicURL returns the CDN-facing URL for a storage key
func PublicURL(cdnPrefix, key string) string {
	return strings.TrimSuffix(cdnPrefix, "/") + "/" + strings.TrimPrefix(key, "/")
}

// ContentTypeForFormat maps an audio format to its MIME type
func ContentTypeForFormat(format string) string {
	if format == "wav" {
		return "audio/wav"
	}
	return "audio/mpeg"
}
