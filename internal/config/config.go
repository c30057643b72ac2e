// Package config loads configuration from an optional YAML file and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultCacheLocation is the well-known catalog document name.
const DefaultCacheLocation = "xenium_cache.json"

// Config holds all configuration for the xenium commands.
type Config struct {
	// Catalog
	CacheLocation     string        `yaml:"cache_location"`
	DefaultSourceType string        `yaml:"default_source_type"`
	NoticeTimeout     time.Duration `yaml:"notice_timeout"`
	ReloadInterval    time.Duration `yaml:"reload_interval"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`

	// S3-compatible storage
	S3 S3Config `yaml:"s3"`

	// Server
	ListenAddr  string `yaml:"listen_addr"`
	MetricsAddr string `yaml:"metrics_addr"`

	// Indexer
	Index IndexConfig `yaml:"index"`
}

// S3Config describes how to reach S3 or an S3-compatible endpoint.
// An empty Endpoint means AWS itself with the default credential chain.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// IndexConfig lists the bucket locations scanned by the indexer.
type IndexConfig struct {
	Output  string         `yaml:"output"`
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig is one bucket prefix to scan. Name becomes the
// source_type of every record found under it. Backend selects the client
// ("s3" or "minio", default "s3").
type SourceConfig struct {
	Name    string `yaml:"name"`
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Match   string `yaml:"match"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CacheLocation:     DefaultCacheLocation,
		DefaultSourceType: "sopa",
		NoticeTimeout:     2 * time.Second,
		ReloadInterval:    5 * time.Minute,
		LogLevel:          "info",
		LogFormat:         "json",
		LogFile:           defaultLogFile(),
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		ListenAddr:  ":8080",
		MetricsAddr: ":9090",
		Index: IndexConfig{
			Output: DefaultCacheLocation,
			Sources: []SourceConfig{{
				Name:   "sopa",
				Bucket: "cholab-xenium-explorer-storage",
				Prefix: "sopa/",
				Match:  "experiment.xenium",
			}},
		},
	}
}

// Load reads configuration with defaults, then the YAML file at path (or
// $XENIUM_CONFIG when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("XENIUM_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.CacheLocation = envOr("CACHE_LOCATION", cfg.CacheLocation)
	cfg.DefaultSourceType = envOr("DEFAULT_SOURCE_TYPE", cfg.DefaultSourceType)
	cfg.NoticeTimeout = envDuration("NOTICE_TIMEOUT", cfg.NoticeTimeout)
	cfg.ReloadInterval = envDuration("RELOAD_INTERVAL", cfg.ReloadInterval)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("LOG_FORMAT", cfg.LogFormat)
	cfg.LogFile = envOr("LOG_FILE", cfg.LogFile)
	cfg.S3.Endpoint = envOr("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.Region = envOr("S3_REGION", cfg.S3.Region)
	cfg.S3.AccessKey = envOr("S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = envOr("S3_SECRET_KEY", cfg.S3.SecretKey)
	cfg.S3.UseSSL = envBool("S3_USE_SSL", cfg.S3.UseSSL)
	cfg.ListenAddr = envOr("LISTEN_ADDR", cfg.ListenAddr)
	cfg.MetricsAddr = envOr("METRICS_ADDR", cfg.MetricsAddr)
	cfg.Index.Output = envOr("INDEX_OUTPUT", cfg.Index.Output)

	if cfg.CacheLocation == "" {
		return nil, fmt.Errorf("cache location is required")
	}
	if cfg.NoticeTimeout <= 0 {
		return nil, fmt.Errorf("notice timeout must be > 0")
	}

	return cfg, nil
}

// Validate checks the indexer section.
func (c IndexConfig) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one index source is required")
	}
	for i, src := range c.Sources {
		if src.Bucket == "" {
			return fmt.Errorf("index source %d: bucket is required", i)
		}
		if src.Name == "" {
			return fmt.Errorf("index source %d: name is required", i)
		}
		switch src.Backend {
		case "", "s3", "minio", "local":
		default:
			return fmt.Errorf("index source %d: unknown backend %q", i, src.Backend)
		}
	}
	return nil
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "xenium.log"
	}
	return filepath.Join(dir, "xenium", "xenium.log")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
