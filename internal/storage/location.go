package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnsupportedScheme is returned for location schemes without a backend.
var ErrUnsupportedScheme = errors.New("unsupported location scheme")

// Location schemes.
const (
	SchemeFile  = "file"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeS3    = "s3"
	SchemeMinio = "minio"
)

// Location is a parsed catalog location.
type Location struct {
	Scheme string
	Bucket string // s3 and minio only
	Key    string // object key, file path, or full URL for http(s)
	Raw    string
}

// String returns the original location text.
func (l Location) String() string { return l.Raw }

// ParseLocation parses a location. Strings without a scheme are local paths.
func ParseLocation(raw string) (Location, error) {
	if raw == "" {
		return Location{}, fmt.Errorf("empty location")
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Location{Scheme: SchemeFile, Key: raw, Raw: raw}, nil
	}

	switch strings.ToLower(scheme) {
	case SchemeFile:
		u, err := url.Parse(raw)
		if err != nil {
			return Location{}, fmt.Errorf("parse %s: %w", raw, err)
		}
		return Location{Scheme: SchemeFile, Key: u.Path, Raw: raw}, nil

	case SchemeHTTP, SchemeHTTPS:
		if _, err := url.ParseRequestURI(raw); err != nil {
			return Location{}, fmt.Errorf("parse %s: %w", raw, err)
		}
		return Location{Scheme: strings.ToLower(scheme), Key: raw, Raw: raw}, nil

	case SchemeS3, SchemeMinio:
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Location{}, fmt.Errorf("parse %s: missing bucket", raw)
		}
		return Location{Scheme: strings.ToLower(scheme), Bucket: bucket, Key: key, Raw: raw}, nil

	default:
		return Location{}, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
}
