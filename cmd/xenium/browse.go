package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChoBioLab/xenium-explorer-files/internal/catalog"
	"github.com/ChoBioLab/xenium-explorer-files/internal/clipboard"
	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
	"github.com/ChoBioLab/xenium-explorer-files/internal/tui"
)

var (
	browseWatch      bool
	browseSourceType string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactively filter the catalog and copy file locations",
	Long: `Opens the catalog in a terminal browser.

Keys:
  tab / shift+tab   move between filters and the results table
  left / right      change the focused filter
  enter, c, y       copy the selected location to the clipboard
  ctrl+r            reset all filters
  ctrl+l            reload the catalog
  q, ctrl+c         quit`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().BoolVarP(&browseWatch, "watch", "w", false, "reload when a local catalog file changes")
	browseCmd.Flags().StringVar(&browseSourceType, "source-type", "", "initial source type filter (default: DEFAULT_SOURCE_TYPE or sopa; \"all\" for none)")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	defaultSource := cfg.DefaultSourceType
	switch browseSourceType {
	case "":
	case "all":
		defaultSource = ""
	default:
		defaultSource = browseSourceType
	}

	// The OSC 52 fallback shares the program's output so its writes are
	// serialized with rendering.
	term := clipboard.NewTerminal(os.Stdout)

	loader := catalog.NewLoader(newResolver(), cfg.CacheLocation, nil)
	model := tui.New(tui.Config{
		Loader:            loader,
		Copier:            clipboard.New(term),
		DefaultSourceType: defaultSource,
		NoticeTimeout:     cfg.NoticeTimeout,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(term))

	if browseWatch {
		err := loader.Watch(ctx, func(cat *catalog.Catalog, err error) {
			p.Send(tui.CatalogMsg{Catalog: cat, Err: err})
		})
		if err != nil {
			return fmt.Errorf("watch catalog: %w", err)
		}
	}

	logging.Info("browser starting", zap.String("cache_location", cfg.CacheLocation))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}
