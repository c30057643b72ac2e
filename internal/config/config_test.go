package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XENIUM_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CacheLocation != DefaultCacheLocation {
		t.Errorf("expected %s, got %s", DefaultCacheLocation, cfg.CacheLocation)
	}
	if cfg.DefaultSourceType != "sopa" {
		t.Errorf("expected default source type sopa, got %q", cfg.DefaultSourceType)
	}
	if cfg.NoticeTimeout != 2*time.Second {
		t.Errorf("expected 2s notice timeout, got %v", cfg.NoticeTimeout)
	}
	if len(cfg.Index.Sources) != 1 || cfg.Index.Sources[0].Bucket != "cholab-xenium-explorer-storage" {
		t.Errorf("unexpected default sources: %+v", cfg.Index.Sources)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xenium.yaml")
	data := []byte(`
cache_location: s3://bucket/cache.json
default_source_type: ""
notice_timeout: 3s
s3:
  endpoint: http://localhost:9000
  access_key: minio
index:
  sources:
    - name: sopa
      bucket: a
      prefix: sopa/
    - name: raw
      bucket: b
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("S3_ACCESS_KEY", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CacheLocation != "s3://bucket/cache.json" {
		t.Errorf("expected file cache location, got %s", cfg.CacheLocation)
	}
	if cfg.DefaultSourceType != "" {
		t.Errorf("expected empty default source type, got %q", cfg.DefaultSourceType)
	}
	if cfg.NoticeTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", cfg.NoticeTimeout)
	}
	if cfg.S3.Endpoint != "http://localhost:9000" {
		t.Errorf("expected endpoint from file, got %s", cfg.S3.Endpoint)
	}
	if cfg.S3.AccessKey != "from-env" {
		t.Errorf("expected env override, got %s", cfg.S3.AccessKey)
	}
	if len(cfg.Index.Sources) != 2 || cfg.Index.Sources[1].Name != "raw" {
		t.Errorf("unexpected sources: %+v", cfg.Index.Sources)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnvDurationFallback(t *testing.T) {
	t.Setenv("NOTICE_TIMEOUT", "not-a-duration")
	if got := envDuration("NOTICE_TIMEOUT", time.Second); got != time.Second {
		t.Errorf("expected fallback, got %v", got)
	}
}

func TestIndexValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     IndexConfig
		wantErr bool
	}{
		{"empty", IndexConfig{}, true},
		{"no bucket", IndexConfig{Sources: []SourceConfig{{Name: "sopa"}}}, true},
		{"no name", IndexConfig{Sources: []SourceConfig{{Bucket: "b"}}}, true},
		{"bad backend", IndexConfig{Sources: []SourceConfig{{Name: "sopa", Bucket: "b", Backend: "gcs"}}}, true},
		{"ok", IndexConfig{Sources: []SourceConfig{{Name: "sopa", Bucket: "b"}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "xenium.example.yaml"))
	if err != nil {
		t.Fatalf("load example: %v", err)
	}
	if cfg.ReloadInterval != 5*time.Minute {
		t.Errorf("expected 5m reload interval, got %v", cfg.ReloadInterval)
	}
	if err := cfg.Index.Validate(); err != nil {
		t.Errorf("example index config invalid: %v", err)
	}
}
