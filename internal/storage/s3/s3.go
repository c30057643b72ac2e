// Package s3 provides an S3 storage backend built on aws-sdk-go-v2.
package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
	"github.com/ChoBioLab/xenium-explorer-files/internal/metrics"
)

// BackendConfig holds S3 connection settings for a single bucket.
// Leave Endpoint and the keys empty to use AWS with the default
// credential chain.
type BackendConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
}

// API is the subset of the S3 client the backend uses.
type API interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Backend reads, writes and lists objects in one bucket.
type S3Backend struct {
	client API
	bucket string
}

// NewBackend creates a new S3 backend from a BackendConfig.
func NewBackend(ctx context.Context, cfg BackendConfig) (*S3Backend, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, cfg.Bucket), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client API, bucket string) *S3Backend {
	return &S3Backend{client: client, bucket: bucket}
}

// GetObject retrieves an object from S3.
func (b *S3Backend) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()

	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		metrics.RecordS3Operation("get_object", time.Since(start), false)
		return nil, fmt.Errorf("get object s3://%s/%s: %w", b.bucket, key, err)
	}

	metrics.RecordS3Operation("get_object", time.Since(start), true)
	return result.Body, nil
}

// PutObject uploads content to S3 through the transfer manager.
func (b *S3Backend) PutObject(ctx context.Context, key string, body io.Reader, size int64) error {
	start := time.Now()

	uploader := manager.NewUploader(b.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		metrics.RecordS3Operation("put_object", time.Since(start), false)
		return fmt.Errorf("put object s3://%s/%s: %w", b.bucket, key, err)
	}

	metrics.RecordS3Operation("put_object", time.Since(start), true)
	logging.Debug("S3 put object",
		zap.String("bucket", b.bucket),
		zap.String("key", key),
		zap.Int64("size", size))
	return nil
}

// ListObjects pages through every object under prefix.
func (b *S3Backend) ListObjects(ctx context.Context, prefix string, fn func(key string, size int64, modified time.Time) error) error {
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})

	pages := 0
	for paginator.HasMorePages() {
		start := time.Now()
		page, err := paginator.NextPage(ctx)
		if err != nil {
			metrics.RecordS3Operation("list_objects", time.Since(start), false)
			return fmt.Errorf("list s3://%s/%s: %w", b.bucket, prefix, err)
		}
		metrics.RecordS3Operation("list_objects", time.Since(start), true)
		pages++

		for _, obj := range page.Contents {
			var modified time.Time
			if obj.LastModified != nil {
				modified = *obj.LastModified
			}
			if err := fn(aws.ToString(obj.Key), aws.ToInt64(obj.Size), modified); err != nil {
				return err
			}
		}
	}

	logging.Debug("S3 list complete",
		zap.String("bucket", b.bucket),
		zap.String("prefix", prefix),
		zap.Int("pages", pages))
	return nil
}

// Type returns "s3".
func (b *S3Backend) Type() string { return "s3" }

// Close is a no-op for S3 backends.
func (b *S3Backend) Close() error { return nil }
