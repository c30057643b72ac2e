package render

import (
	"encoding/csv"
	"io"

	"github.com/ChoBioLab/xenium-explorer-files/internal/catalog"
)

// WriteCSV writes the page rows with a header line.
func WriteCSV(w io.Writer, p Page) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, row := range p.Rows {
		if err := cw.Write(row.Cells); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the matching records as a catalog-shaped document, so
// the output can be loaded again.
func WriteJSON(w io.Writer, view []catalog.FileRecord, cat *catalog.Catalog) error {
	out := &catalog.Catalog{FileCount: len(view), Files: view}
	if cat != nil {
		out.LastUpdated = cat.LastUpdated
		out.Bucket = cat.Bucket
	}
	if out.Files == nil {
		out.Files = []catalog.FileRecord{}
	}
	return catalog.Encode(w, out)
}
