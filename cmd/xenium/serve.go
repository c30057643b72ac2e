package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ChoBioLab/xenium-explorer-files/internal/api"
	"github.com/ChoBioLab/xenium-explorer-files/internal/catalog"
	"github.com/ChoBioLab/xenium-explorer-files/internal/events"
	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
	"github.com/ChoBioLab/xenium-explorer-files/internal/metrics"
	"github.com/ChoBioLab/xenium-explorer-files/internal/storage"
)

var (
	serveListen string
	serveWatch  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host the catalog document over HTTP",
	Long: `Serves the current catalog at /xenium_cache.json, health at /health and
catalog change events at /events (server-sent events). Prometheus metrics are
served on the metrics address. The catalog is reloaded every RELOAD_INTERVAL;
a failed reload keeps serving the previous document.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default: LISTEN_ADDR or :8080)")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "reload when a local catalog file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListen != "" {
		cfg.ListenAddr = serveListen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broadcaster := events.NewBroadcaster()
	loader := catalog.NewLoader(newResolver(), cfg.CacheLocation, broadcaster)
	if _, err := loader.Load(ctx); err != nil {
		// Keep serving 503 until a reload succeeds.
		logging.Error("initial catalog load failed", zap.Error(err))
	}

	if serveWatch {
		if loc, err := storage.ParseLocation(cfg.CacheLocation); err == nil && loc.Scheme == storage.SchemeFile {
			if err := loader.Watch(ctx, nil); err != nil {
				return err
			}
		} else {
			logging.Warn("--watch ignored for non-local catalog", zap.String("cache_location", cfg.CacheLocation))
		}
	}

	srv := api.NewServer(loader, broadcaster, version)
	httpServer := srv.HTTPServer(cfg.ListenAddr)
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("catalog server listening", zap.String("addr", cfg.ListenAddr))
		return listen(httpServer)
	})
	g.Go(func() error {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		return listen(metricsServer)
	})
	g.Go(func() error {
		loader.Run(ctx, cfg.ReloadInterval)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logging.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(httpServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

func listen(s *http.Server) error {
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
