package filter

import (
	"time"

	"github.com/ChoBioLab/xenium-explorer-files/internal/catalog"
	"github.com/ChoBioLab/xenium-explorer-files/internal/metrics"
)

// Session owns the catalog in use and the criteria applied to it. Every
// mutation recomputes the view from scratch. Before a catalog is set all
// mutations are no-ops and the view is nil.
//
// A Session is not safe for concurrent use; the UI loop owns it.
type Session struct {
	defaults Criteria
	criteria Criteria
	cat      *catalog.Catalog
	options  catalog.Options
	view     []catalog.FileRecord
}

// NewSession creates a Session whose default criteria select
// defaultSourceType ("" for none).
func NewSession(defaultSourceType string) *Session {
	d := Criteria{SourceType: defaultSourceType}
	return &Session{defaults: d, criteria: d}
}

// Loaded reports whether a catalog has been set.
func (s *Session) Loaded() bool { return s.cat != nil }

// Catalog returns the catalog in use, or nil.
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// SetCatalog installs cat, derives its option lists and recomputes the
// view with the current criteria. On first install the criteria are the
// defaults, so the first view already has them applied.
func (s *Session) SetCatalog(cat *catalog.Catalog) []catalog.FileRecord {
	s.cat = cat
	s.options = catalog.DeriveOptions(cat)
	return s.apply()
}

// Set changes one criterion.
func (s *Session) Set(f Field, value string) []catalog.FileRecord {
	if s.cat == nil {
		return nil
	}
	s.criteria = s.criteria.With(f, value)
	return s.apply()
}

// SetSearch changes the location search term.
func (s *Session) SetSearch(term string) []catalog.FileRecord {
	return s.Set(FieldSearch, term)
}

// SetDate changes the created-date prefix.
func (s *Session) SetDate(prefix string) []catalog.FileRecord {
	return s.Set(FieldDate, prefix)
}

// Reset restores the default criteria.
func (s *Session) Reset() []catalog.FileRecord {
	if s.cat == nil {
		return nil
	}
	s.criteria = s.defaults
	return s.apply()
}

// Criteria returns the current criteria.
func (s *Session) Criteria() Criteria { return s.criteria }

// Defaults returns the criteria restored by Reset.
func (s *Session) Defaults() Criteria { return s.defaults }

// View returns the last computed view.
func (s *Session) View() []catalog.FileRecord { return s.view }

// Options returns the distinct values derived from the catalog.
func (s *Session) Options() catalog.Options { return s.options }

// OptionsFor returns the option list for a metadata field.
func (s *Session) OptionsFor(f Field) []string {
	switch f {
	case FieldSourceType:
		return s.options.SourceTypes
	case FieldProject:
		return s.options.Projects
	case FieldBRPID:
		return s.options.BRPIDs
	case FieldPanel:
		return s.options.Panels
	case FieldRunID:
		return s.options.RunIDs
	default:
		return nil
	}
}

func (s *Session) apply() []catalog.FileRecord {
	start := time.Now()
	s.view = Apply(s.cat, s.criteria)
	metrics.RecordFilterPass(time.Since(start))
	return s.view
}
