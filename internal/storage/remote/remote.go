// Package remote provides a read-only backend for catalog documents served
// over HTTP(S), such as the static site that hosts the browser page.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
)

// ErrReadOnly is returned by PutObject.
var ErrReadOnly = errors.New("remote backend is read-only")

// RemoteBackend fetches objects by URL.
type RemoteBackend struct {
	client *http.Client
}

// New creates a remote backend. A nil client gets a default one with a
// 30s timeout and request logging.
func New(client *http.Client) *RemoteBackend {
	if client == nil {
		client = &http.Client{
			Timeout:   30 * time.Second,
			Transport: &logging.Transport{},
		}
	}
	return &RemoteBackend{client: client}
}

// GetObject issues a GET for the URL in key. Any non-2xx status is an error.
func (b *RemoteBackend) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", key, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", key, resp.Status)
	}
	return resp.Body, nil
}

// PutObject always fails.
func (b *RemoteBackend) PutObject(context.Context, string, io.Reader, int64) error {
	return ErrReadOnly
}

// Type returns "remote".
func (b *RemoteBackend) Type() string { return "remote" }

// Close releases idle connections.
func (b *RemoteBackend) Close() error {
	b.client.CloseIdleConnections()
	return nil
}
