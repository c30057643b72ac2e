// Package local provides a local filesystem storage backend.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LocalBackend reads and writes catalog documents on the local filesystem.
// Keys are file paths, relative to the working directory or absolute.
type LocalBackend struct{}

// New creates a new local filesystem backend.
func New() *LocalBackend {
	return &LocalBackend{}
}

// GetObject opens the file at key.
func (b *LocalBackend) GetObject(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.FromSlash(key))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

// PutObject writes body to key through a temp file and rename, so readers
// never observe a half-written document.
func (b *LocalBackend) PutObject(_ context.Context, key string, body io.Reader, _ int64) error {
	path := filepath.FromSlash(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// ListObjects walks the directory prefix and reports regular files.
func (b *LocalBackend) ListObjects(ctx context.Context, prefix string, fn func(key string, size int64, modified time.Time) error) error {
	root := filepath.FromSlash(prefix)
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(path), info.Size(), info.ModTime())
	})
}

// Type returns "local".
func (b *LocalBackend) Type() string { return "local" }

// Close is a no-op for local backends.
func (b *LocalBackend) Close() error { return nil }
