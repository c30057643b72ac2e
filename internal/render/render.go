// Package render turns a filtered view into a display-independent page
// description shared by the terminal UI and the list command.
package render

import (
	"errors"
	"strings"

	"github.com/ChoBioLab/xenium-explorer-files/internal/catalog"
)

// Placeholder is the text for missing values.
const Placeholder = "-"

// NoResultsMessage replaces the table when nothing matches.
const NoResultsMessage = "No files match the current filters. Try adjusting your criteria."

// Columns are the table headers in display order.
var Columns = []string{"Source Type", "Project", "Block ID", "Panel", "Run ID", "Date", "Location"}

// Column indexes into Row.Cells.
const (
	ColSourceType = iota
	ColProject
	ColBlockID
	ColPanel
	ColRunID
	ColDate
	ColLocation
)

// Row is one rendered record. URI is the copy payload.
type Row struct {
	Cells []string
	URI   string
}

// Summary holds the counts and generation time shown above the table.
type Summary struct {
	FilteredCount int
	TotalCount    int
	LastUpdated   string
}

// Page is a complete description of what to display.
type Page struct {
	Summary Summary
	Rows    []Row

	// Empty is set when no record matched; Message holds the placeholder.
	Empty   bool
	Message string

	// Err is set when the catalog could not be loaded; only Message is
	// meaningful then.
	Err error
}

// Render describes view. The total count comes from the catalog's
// file_count.
func Render(view []catalog.FileRecord, cat *catalog.Catalog) Page {
	p := Page{Summary: Summary{FilteredCount: len(view), LastUpdated: Placeholder}}
	if cat != nil {
		p.Summary.TotalCount = cat.FileCount
		p.Summary.LastUpdated = cat.LastUpdated.String()
	}
	if len(view) == 0 {
		p.Empty = true
		p.Message = NoResultsMessage
		return p
	}
	p.Rows = make([]Row, len(view))
	for i, r := range view {
		p.Rows[i] = RenderRow(r)
	}
	return p
}

// RenderRow renders a single record.
func RenderRow(r catalog.FileRecord) Row {
	var m catalog.Metadata
	if r.Metadata != nil {
		m = *r.Metadata
	}
	return Row{
		Cells: []string{
			orPlaceholder(m.SourceType),
			orPlaceholder(m.Project),
			orPlaceholder(m.BRPID),
			orPlaceholder(m.Panel),
			orPlaceholder(m.RunID),
			DisplayDate(r),
			orPlaceholder(r.S3URI),
		},
		URI: r.S3URI,
	}
}

// DisplayDate is the created_date for sopa records that have one and the
// modification date and time otherwise.
func DisplayDate(r catalog.FileRecord) string {
	if r.Metadata != nil && r.Metadata.SourceType == catalog.SourceSopa && r.Metadata.CreatedDate != "" {
		return r.Metadata.CreatedDate
	}
	return orPlaceholder(strings.TrimSpace(r.Date + " " + r.Time))
}

// ErrorPage describes a catalog that failed to load.
func ErrorPage(err error) Page {
	msg := catalog.LoadFailureMessage
	var failure *catalog.LoadFailure
	if errors.As(err, &failure) {
		msg = failure.UserMessage()
	}
	return Page{
		Summary: Summary{LastUpdated: Placeholder},
		Err:     err,
		Message: msg,
	}
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
