// Xenium Explorer Files
//
// Browse, filter and copy locations from the Xenium experiment catalog
// (xenium_cache.json), rebuild the catalog from bucket listings, and host it
// for other clients.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChoBioLab/xenium-explorer-files/internal/config"
	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
	"github.com/ChoBioLab/xenium-explorer-files/internal/storage"
)

var (
	// Global flags
	configPath    string
	cacheLocation string
	logLevel      string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "xenium",
	Short: "Browse the Xenium experiment file catalog",
	Long: `xenium works with xenium_cache.json, the catalog of experiment.xenium
files stored in the Xenium explorer buckets.

  xenium browse   interactive filter/search/copy browser
  xenium list     one-shot filtered listing (table, json or csv)
  xenium index    rebuild the catalog from bucket listings
  xenium serve    host the catalog document over HTTP

Catalog locations may be local paths, http(s) URLs, s3://bucket/key or
minio://bucket/key.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cacheLocation != "" {
			cfg.CacheLocation = cacheLocation
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		// The browser owns the terminal, so it logs to a file.
		output := "stderr"
		if cmd.Name() == "browse" {
			output = cfg.LogFile
		}
		if err := logging.Init(logging.Config{
			Level:      cfg.LogLevel,
			Format:     cfg.LogFormat,
			OutputPath: output,
		}); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		logging.Debug("configuration loaded",
			zap.String("cache_location", cfg.CacheLocation),
			zap.String("default_source_type", cfg.DefaultSourceType))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (or set XENIUM_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&cacheLocation, "cache", "", "catalog location (default: CACHE_LOCATION or xenium_cache.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(browseCmd, listCmd, indexCmd, serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newResolver() *storage.Resolver {
	return storage.NewResolver(cfg.S3, nil)
}
