// Package minio provides a storage backend for MinIO and other
// S3-compatible services, built on minio-go.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
	"github.com/ChoBioLab/xenium-explorer-files/internal/metrics"
)

// Config holds MinIO connection settings.
type Config struct {
	Endpoint  string // host:port, an http(s):// prefix is stripped
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// MinioBackend reads, writes and lists objects in one bucket.
type MinioBackend struct {
	client *minio.Client
	bucket string
}

// New creates a new MinIO backend.
func New(cfg Config) (*MinioBackend, error) {
	endpoint, secure := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioBackend{client: client, bucket: cfg.Bucket}, nil
}

// normalizeEndpoint strips a URL scheme, which also decides TLS when present.
func normalizeEndpoint(endpoint string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	default:
		return strings.TrimSuffix(endpoint, "/"), useSSL
	}
}

// GetObject retrieves an object. The object is stat'ed first so a missing
// key fails here rather than on the first read.
func (b *MinioBackend) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()

	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		metrics.RecordS3Operation("get_object", time.Since(start), false)
		return nil, fmt.Errorf("get object minio://%s/%s: %w", b.bucket, key, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		metrics.RecordS3Operation("get_object", time.Since(start), false)
		return nil, fmt.Errorf("get object minio://%s/%s: %w", b.bucket, key, err)
	}

	metrics.RecordS3Operation("get_object", time.Since(start), true)
	return obj, nil
}

// PutObject uploads content. A negative size streams the body.
func (b *MinioBackend) PutObject(ctx context.Context, key string, body io.Reader, size int64) error {
	start := time.Now()

	if size < 0 {
		data, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("read body for %s: %w", key, err)
		}
		body, size = bytes.NewReader(data), int64(len(data))
	}

	_, err := b.client.PutObject(ctx, b.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		metrics.RecordS3Operation("put_object", time.Since(start), false)
		return fmt.Errorf("put object minio://%s/%s: %w", b.bucket, key, err)
	}

	metrics.RecordS3Operation("put_object", time.Since(start), true)
	logging.Debug("minio put object",
		zap.String("bucket", b.bucket),
		zap.String("key", key),
		zap.Int64("size", size))
	return nil
}

// ListObjects reports every object under prefix, recursively.
func (b *MinioBackend) ListObjects(ctx context.Context, prefix string, fn func(key string, size int64, modified time.Time) error) error {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			metrics.RecordS3Operation("list_objects", time.Since(start), false)
			return fmt.Errorf("list minio://%s/%s: %w", b.bucket, prefix, obj.Err)
		}
		if err := fn(obj.Key, obj.Size, obj.LastModified); err != nil {
			return err
		}
	}

	metrics.RecordS3Operation("list_objects", time.Since(start), true)
	return nil
}

// Type returns "minio".
func (b *MinioBackend) Type() string { return "minio" }

// Close is a no-op for MinIO backends.
func (b *MinioBackend) Close() error { return nil }
