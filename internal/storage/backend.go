// Package storage defines the Backend interface for catalog documents and
// resolves location strings (paths, URLs, s3:// and minio:// URIs) to a
// concrete backend.
package storage

import (
	"context"
	"io"
	"time"
)

// Backend is the interface for catalog storage backends.
type Backend interface {
	// GetObject retrieves the object at key.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	// PutObject uploads content to the given key.
	PutObject(ctx context.Context, key string, body io.Reader, size int64) error

	// Type returns the backend type identifier ("local", "remote", "s3", "minio").
	Type() string

	// Close releases any resources held by the backend.
	Close() error
}

// Lister is implemented by backends that can enumerate objects.
type Lister interface {
	ListObjects(ctx context.Context, prefix string, fn func(key string, size int64, modified time.Time) error) error
}
