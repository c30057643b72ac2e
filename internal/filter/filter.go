// Package filter selects catalog records matching the user's criteria.
package filter

import (
	"strings"

	"github.com/ChoBioLab/xenium-explorer-files/internal/catalog"
)

// Field identifies one criterion.
type Field int

const (
	FieldSourceType Field = iota
	FieldProject
	FieldBRPID
	FieldPanel
	FieldRunID
	FieldSearch
	FieldDate
)

// MetadataFields are the exact-match fields, in display order.
var MetadataFields = []Field{FieldSourceType, FieldProject, FieldBRPID, FieldPanel, FieldRunID}

func (f Field) String() string {
	switch f {
	case FieldSourceType:
		return "source_type"
	case FieldProject:
		return "project"
	case FieldBRPID:
		return "brp_id"
	case FieldPanel:
		return "panel"
	case FieldRunID:
		return "run_id"
	case FieldSearch:
		return "search"
	case FieldDate:
		return "date"
	default:
		return "unknown"
	}
}

// Label is the human-readable field name.
func (f Field) Label() string {
	switch f {
	case FieldSourceType:
		return "Source Type"
	case FieldProject:
		return "Project"
	case FieldBRPID:
		return "Block ID"
	case FieldPanel:
		return "Panel"
	case FieldRunID:
		return "Run ID"
	case FieldSearch:
		return "Search"
	case FieldDate:
		return "Created Date"
	default:
		return "Unknown"
	}
}

// Criteria is the current filter state. Empty fields are inactive.
type Criteria struct {
	SourceType string `json:"source_type,omitempty"`
	Project    string `json:"project,omitempty"`
	BRPID      string `json:"brp_id,omitempty"`
	Panel      string `json:"panel,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	Search     string `json:"search,omitempty"`
	Date       string `json:"date,omitempty"`
}

// Value returns the value of field f.
func (c Criteria) Value(f Field) string {
	switch f {
	case FieldSourceType:
		return c.SourceType
	case FieldProject:
		return c.Project
	case FieldBRPID:
		return c.BRPID
	case FieldPanel:
		return c.Panel
	case FieldRunID:
		return c.RunID
	case FieldSearch:
		return c.Search
	case FieldDate:
		return c.Date
	default:
		return ""
	}
}

// With returns a copy of c with field f set to v.
func (c Criteria) With(f Field, v string) Criteria {
	switch f {
	case FieldSourceType:
		c.SourceType = v
	case FieldProject:
		c.Project = v
	case FieldBRPID:
		c.BRPID = v
	case FieldPanel:
		c.Panel = v
	case FieldRunID:
		c.RunID = v
	case FieldSearch:
		c.Search = v
	case FieldDate:
		c.Date = v
	}
	return c
}

// IsZero reports whether no criterion is active.
func (c Criteria) IsZero() bool { return c == Criteria{} }

// Matches reports whether r satisfies every active criterion.
func (c Criteria) Matches(r catalog.FileRecord) bool {
	m := r.Metadata
	if !matchField(c.SourceType, m, func(m *catalog.Metadata) string { return m.SourceType }) ||
		!matchField(c.Project, m, func(m *catalog.Metadata) string { return m.Project }) ||
		!matchField(c.BRPID, m, func(m *catalog.Metadata) string { return m.BRPID }) ||
		!matchField(c.Panel, m, func(m *catalog.Metadata) string { return m.Panel }) ||
		!matchField(c.RunID, m, func(m *catalog.Metadata) string { return m.RunID }) {
		return false
	}
	if c.Search != "" && !strings.Contains(strings.ToLower(r.S3URI), strings.ToLower(c.Search)) {
		return false
	}
	// The date prefix only constrains sopa records.
	if c.Date != "" && r.SourceType() == catalog.SourceSopa {
		if m.CreatedDate == "" || !strings.HasPrefix(m.CreatedDate, c.Date) {
			return false
		}
	}
	return true
}

func matchField(want string, m *catalog.Metadata, get func(*catalog.Metadata) string) bool {
	if want == "" {
		return true
	}
	return m != nil && get(m) == want
}

// Apply returns the records of cat matching c, in catalog order. The
// catalog is not modified. A nil catalog yields nil.
func Apply(cat *catalog.Catalog, c Criteria) []catalog.FileRecord {
	if cat == nil {
		return nil
	}
	out := make([]catalog.FileRecord, 0, len(cat.Files))
	for _, r := range cat.Files {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
