// Package catalog defines the catalog document produced by the indexer and
// loads it for browsing.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// SourceSopa is the source type whose records carry a created_date and are
// subject to the date-prefix filter.
const SourceSopa = "sopa"

// Catalog is the full set of indexed file records. It is read-only once
// published by a Loader.
type Catalog struct {
	LastUpdated Timestamp    `json:"last_updated"`
	Bucket      string       `json:"bucket,omitempty"`
	FileCount   int          `json:"file_count"`
	Files       []FileRecord `json:"files"`
}

// FileRecord describes one stored object.
type FileRecord struct {
	S3URI    string    `json:"s3_uri"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	Size     string    `json:"size,omitempty"`
	Path     string    `json:"path,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Metadata holds the descriptive fields derived from an object's path.
// Every field is optional; empty means absent.
type Metadata struct {
	Project     string `json:"project,omitempty"`
	BRPID       string `json:"brp_id,omitempty"`
	Panel       string `json:"panel,omitempty"`
	RunID       string `json:"run_id,omitempty"`
	SourceType  string `json:"source_type,omitempty"`
	CreatedDate string `json:"created_date,omitempty"`
}

// SourceType returns the record's source type, or "" without metadata.
func (r FileRecord) SourceType() string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata.SourceType
}

// Timestamp is the catalog generation time. The raw text is kept so an
// unparseable value can still be shown as-is.
type Timestamp struct {
	Time time.Time
	Raw  string
}

// Layouts accepted for last_updated. The indexer writes RFC 3339; older
// documents carry a zone-less ISO 8601 time in the writer's local zone.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses s. Values without a zone are local time. On
// failure the result carries only Raw.
func ParseTimestamp(s string) Timestamp {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: t, Raw: s}
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{Time: t, Raw: s}
		}
	}
	return Timestamp{Raw: s}
}

// IsZero reports whether no timestamp was present.
func (t Timestamp) IsZero() bool {
	return t.Raw == "" && t.Time.IsZero()
}

// String formats the timestamp for display in local time.
func (t Timestamp) String() string {
	if t.Time.IsZero() {
		if t.Raw == "" {
			return "-"
		}
		return t.Raw
	}
	return t.Time.Local().Format("2006-01-02 15:04:05")
}

// UnmarshalJSON accepts a string or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("last_updated: %w", err)
	}
	*t = ParseTimestamp(s)
	return nil
}

// MarshalJSON writes the raw text, or RFC 3339 when only Time is set.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Raw != "" {
		return json.Marshal(t.Raw)
	}
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Decode reads a catalog document.
func Decode(r io.Reader) (*Catalog, error) {
	var cat Catalog
	if err := json.NewDecoder(r).Decode(&cat); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &cat, nil
}

// Encode writes a catalog document as indented JSON.
func Encode(w io.Writer, cat *Catalog) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(cat)
}

// Options holds the distinct non-empty values of each filterable field.
type Options struct {
	SourceTypes []string `json:"source_types"`
	Projects    []string `json:"projects"`
	BRPIDs      []string `json:"brp_ids"`
	Panels      []string `json:"panels"`
	RunIDs      []string `json:"run_ids"`
}

// DeriveOptions scans every record once. Values are sorted for display.
func DeriveOptions(cat *Catalog) Options {
	if cat == nil {
		return Options{}
	}
	sets := [5]map[string]struct{}{}
	for i := range sets {
		sets[i] = make(map[string]struct{})
	}
	add := func(i int, v string) {
		if strings.TrimSpace(v) != "" {
			sets[i][v] = struct{}{}
		}
	}
	for _, f := range cat.Files {
		m := f.Metadata
		if m == nil {
			continue
		}
		add(0, m.SourceType)
		add(1, m.Project)
		add(2, m.BRPID)
		add(3, m.Panel)
		add(4, m.RunID)
	}
	return Options{
		SourceTypes: sortedKeys(sets[0]),
		Projects:    sortedKeys(sets[1]),
		BRPIDs:      sortedKeys(sets[2]),
		Panels:      sortedKeys(sets[3]),
		RunIDs:      sortedKeys(sets[4]),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
