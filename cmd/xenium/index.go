package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChoBioLab/xenium-explorer-files/internal/indexer"
	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
	"github.com/ChoBioLab/xenium-explorer-files/internal/metrics"
)

var (
	indexOutput          string
	indexMetricsTextfile string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the catalog from bucket listings",
	Long: `Lists every configured source recursively, keeps the experiment.xenium
objects outside .zarr directories, derives their metadata from the path and
writes the catalog document. Record dates and times are in the host's local
time zone, as bucket listings print them; last_updated is written in UTC.

Sources come from the index section of the config file; the default is
s3://cholab-xenium-explorer-storage/sopa/ with source type "sopa".
The output may be a local path, s3://bucket/key or minio://bucket/key.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexOutput, "output", "o", "", "output location (default: index.output or INDEX_OUTPUT)")
	indexCmd.Flags().StringVar(&indexMetricsTextfile, "metrics-textfile", "", "write job metrics in Prometheus textfile format")
}

func runIndex(cmd *cobra.Command, args []string) error {
	if err := cfg.Index.Validate(); err != nil {
		return err
	}
	output := cfg.Index.Output
	if indexOutput != "" {
		output = indexOutput
	}

	start := time.Now()
	resolver := newResolver()
	cat, stats, err := indexer.New(resolver).Run(cmd.Context(), cfg.Index.Sources)
	if err != nil {
		return err
	}
	if err := indexer.Write(cmd.Context(), resolver, output, cat); err != nil {
		return err
	}

	for _, st := range stats {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d experiment.xenium files, %d skipped in .zarr directories\n",
			st.Name, st.Kept, st.Skipped)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cache saved to %s (%d files)\n", output, cat.FileCount)
	logging.Info("index complete",
		zap.Int("files", cat.FileCount),
		zap.Duration("duration", time.Since(start)))

	if indexMetricsTextfile != "" {
		if err := metrics.WriteTextfile(indexMetricsTextfile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
