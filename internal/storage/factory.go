package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ChoBioLab/xenium-explorer-files/internal/config"
	"github.com/ChoBioLab/xenium-explorer-files/internal/storage/local"
	miniobackend "github.com/ChoBioLab/xenium-explorer-files/internal/storage/minio"
	"github.com/ChoBioLab/xenium-explorer-files/internal/storage/remote"
	s3backend "github.com/ChoBioLab/xenium-explorer-files/internal/storage/s3"
)

// Resolver turns location strings into backends using shared S3 settings.
type Resolver struct {
	s3         config.S3Config
	httpClient *http.Client
}

// NewResolver creates a Resolver. A nil httpClient uses the remote
// backend's default.
func NewResolver(s3cfg config.S3Config, httpClient *http.Client) *Resolver {
	return &Resolver{s3: s3cfg, httpClient: httpClient}
}

// NewBackend creates a Backend for a backend type and bucket.
func (r *Resolver) NewBackend(ctx context.Context, backendType, bucket string) (Backend, error) {
	switch backendType {
	case SchemeFile, "local":
		return local.New(), nil
	case SchemeHTTP, SchemeHTTPS, "remote":
		return remote.New(r.httpClient), nil
	case SchemeS3:
		return s3backend.NewBackend(ctx, s3backend.BackendConfig{
			Endpoint:  r.s3.Endpoint,
			Bucket:    bucket,
			AccessKey: r.s3.AccessKey,
			SecretKey: r.s3.SecretKey,
			Region:    r.s3.Region,
		})
	case SchemeMinio:
		return miniobackend.New(miniobackend.Config{
			Endpoint:  r.s3.Endpoint,
			Bucket:    bucket,
			AccessKey: r.s3.AccessKey,
			SecretKey: r.s3.SecretKey,
			Region:    r.s3.Region,
			UseSSL:    r.s3.UseSSL,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, backendType)
	}
}

// Open parses location and returns a reader for it. Closing the reader
// also closes the backend.
func (r *Resolver) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	backend, err := r.NewBackend(ctx, loc.Scheme, loc.Bucket)
	if err != nil {
		return nil, err
	}
	rc, err := backend.GetObject(ctx, loc.Key)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return &backendReader{ReadCloser: rc, backend: backend}, nil
}

// Put writes data to location.
func (r *Resolver) Put(ctx context.Context, location string, data []byte) error {
	loc, err := ParseLocation(location)
	if err != nil {
		return err
	}
	backend, err := r.NewBackend(ctx, loc.Scheme, loc.Bucket)
	if err != nil {
		return err
	}
	defer backend.Close()
	return backend.PutObject(ctx, loc.Key, bytes.NewReader(data), int64(len(data)))
}

// Lister returns a Lister for a bucket on the given backend type
// ("s3", "minio" or "local"; empty means "s3").
func (r *Resolver) Lister(ctx context.Context, backendType, bucket string) (Lister, error) {
	if backendType == "" {
		backendType = SchemeS3
	}
	backend, err := r.NewBackend(ctx, backendType, bucket)
	if err != nil {
		return nil, err
	}
	lister, ok := backend.(Lister)
	if !ok {
		backend.Close()
		return nil, fmt.Errorf("%s backend cannot list objects", backend.Type())
	}
	return lister, nil
}

type backendReader struct {
	io.ReadCloser
	backend Backend
}

func (b *backendReader) Close() error {
	err := b.ReadCloser.Close()
	if cerr := b.backend.Close(); err == nil {
		err = cerr
	}
	return err
}
