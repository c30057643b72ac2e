package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ChoBioLab/xenium-explorer-files/internal/config"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw     string
		want    Location
		wantErr bool
	}{
		{raw: "xenium_cache.json", want: Location{Scheme: SchemeFile, Key: "xenium_cache.json"}},
		{raw: "/srv/www/xenium_cache.json", want: Location{Scheme: SchemeFile, Key: "/srv/www/xenium_cache.json"}},
		{raw: "file:///tmp/cache.json", want: Location{Scheme: SchemeFile, Key: "/tmp/cache.json"}},
		{raw: "https://example.org/xenium_cache.json", want: Location{Scheme: SchemeHTTPS, Key: "https://example.org/xenium_cache.json"}},
		{raw: "s3://bucket/sopa/xenium_cache.json", want: Location{Scheme: SchemeS3, Bucket: "bucket", Key: "sopa/xenium_cache.json"}},
		{raw: "minio://bucket/cache.json", want: Location{Scheme: SchemeMinio, Bucket: "bucket", Key: "cache.json"}},
		{raw: "s3:///key", wantErr: true},
		{raw: "gs://bucket/key", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLocation(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLocation(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			tt.want.Raw = tt.raw
			if got != tt.want {
				t.Errorf("ParseLocation(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseLocationUnsupportedScheme(t *testing.T) {
	_, err := ParseLocation("gs://bucket/key")
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestResolverOpenLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xenium_cache.json")
	if err := os.WriteFile(path, []byte(`{"file_count":0}`), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(config.S3Config{}, nil)
	rc, err := r.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if err := rc.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if string(data) != `{"file_count":0}` {
		t.Errorf("unexpected content %q", data)
	}
}

func TestResolverOpenHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"file_count":3}`)
	}))
	defer srv.Close()

	r := NewResolver(config.S3Config{}, srv.Client())
	rc, err := r.Open(context.Background(), srv.URL+"/xenium_cache.json")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != `{"file_count":3}` {
		t.Errorf("unexpected content %q", data)
	}
}

func TestResolverPutLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "xenium_cache.json")
	r := NewResolver(config.S3Config{}, nil)
	if err := r.Put(context.Background(), path, []byte("{}")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if data, err := os.ReadFile(path); err != nil || string(data) != "{}" {
		t.Errorf("unexpected file state: %q, %v", data, err)
	}
}

func TestResolverListerRejectsRemote(t *testing.T) {
	r := NewResolver(config.S3Config{}, nil)
	if _, err := r.Lister(context.Background(), "remote", ""); err == nil {
		t.Fatal("expected error for non-listing backend")
	}
	if _, err := r.Lister(context.Background(), "local", ""); err != nil {
		t.Fatalf("expected local lister, got %v", err)
	}
}
