package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ChoBioLab/xenium-explorer-files/internal/catalog"
	"github.com/ChoBioLab/xenium-explorer-files/internal/filter"
	"github.com/ChoBioLab/xenium-explorer-files/internal/render"
)

var (
	listFormat   string
	listAll      bool
	listCriteria filter.Criteria
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the catalog records matching the given filters",
	Long: `Loads the catalog once, applies the filters and prints the result.

The default source type filter applies unless --source-type or --all is
given. --date only constrains sopa records.

Examples:
  xenium list --project P1
  xenium list --search .xenium --format csv
  xenium list --all --format json > subset.json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	f := listCmd.Flags()
	f.StringVarP(&listFormat, "format", "o", "table", "output format: table, json, csv")
	f.BoolVar(&listAll, "all", false, "do not apply the default source type")
	f.StringVar(&listCriteria.SourceType, "source-type", "", "exact source type")
	f.StringVar(&listCriteria.Project, "project", "", "exact project")
	f.StringVar(&listCriteria.BRPID, "brp-id", "", "exact block id")
	f.StringVar(&listCriteria.Panel, "panel", "", "exact panel")
	f.StringVar(&listCriteria.RunID, "run-id", "", "exact run id")
	f.StringVarP(&listCriteria.Search, "search", "s", "", "case-insensitive substring of the location")
	f.StringVar(&listCriteria.Date, "date", "", "created date prefix, e.g. 2024-01")
}

func runList(cmd *cobra.Command, args []string) error {
	switch listFormat {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("unknown format %q", listFormat)
	}

	loader := catalog.NewLoader(newResolver(), cfg.CacheLocation, nil)
	cat, err := loader.Load(cmd.Context())
	if err != nil {
		return err
	}

	criteria := listCriteria
	if criteria.SourceType == "" && !listAll {
		criteria.SourceType = cfg.DefaultSourceType
	}
	view := filter.Apply(cat, criteria)
	return writeListing(cmd.OutOrStdout(), listFormat, view, cat)
}

func writeListing(w io.Writer, format string, view []catalog.FileRecord, cat *catalog.Catalog) error {
	switch format {
	case "json":
		return render.WriteJSON(w, view, cat)
	case "csv":
		return render.WriteCSV(w, render.Render(view, cat))
	default:
		page := render.Render(view, cat)
		fmt.Fprintf(w, "Showing %d of %d files | Last updated: %s\n",
			page.Summary.FilteredCount, page.Summary.TotalCount, page.Summary.LastUpdated)
		if page.Empty {
			_, err := fmt.Fprintln(w, page.Message)
			return err
		}
		_, err := fmt.Fprintln(w, listTable(page).String())
		return err
	}
}

func listTable(page render.Page) *table.Table {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(render.Columns...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, r := range page.Rows {
		t.Row(r.Cells...)
	}
	return t
}
