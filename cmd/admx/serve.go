package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/admatrix/internal/config"
	"github.com/alfredjeanlab/admatrix/internal/events"
	"github.com/alfredjeanlab/admatrix/internal/server"
	"github.com/alfredjeanlab/admatrix/internal/session"
	admxsync "github.com/alfredjeanlab/admatrix/internal/sync"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the admatrix HTTP server",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Create event publisher. The SSE hub always receives events; NATS
		// only when configured.
		hub := server.NewEventHub()
		var natsPub events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			natsPub = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			logger.Info("NATS events disabled (ADMX_NATS_URL not set)")
		}
		publisher := events.NewMultiPublisher(natsPub, hub)

		// Create server components.
		manager := session.NewManager(publisher, logger)
		if cfg.SessionTTL > 0 {
			manager.StartReaper(&session.ReaperConfig{TTL: cfg.SessionTTL})
		}
		srv := server.New(manager, hub, logger)

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start sync scheduler if any destinations are configured.
		var scheduler *admxsync.Scheduler
		if cfg.SyncEnabled() {
			dests := syncDestinations(cfg, logger)
			if len(dests) > 0 {
				scheduler = admxsync.NewScheduler(manager, dests, cfg.SyncInterval, logger)
				scheduler.Start()
				logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
			}
		}

		logger.Info("admatrix server started",
			"http_addr", cfg.HTTPAddr,
			"auth", cfg.AuthToken != "",
			"session_ttl", cfg.SessionTTL,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}
		manager.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// syncDestinations builds the configured destinations. A destination that
// cannot be created is logged and skipped.
func syncDestinations(cfg *config.Config, logger *slog.Logger) []admxsync.Destination {
	var dests []admxsync.Destination

	if cfg.SyncDir != "" {
		dests = append(dests, admxsync.NewFileDestination(cfg.SyncDir))
		logger.Info("sync directory destination enabled", "dir", cfg.SyncDir)
	}

	if cfg.SyncS3Bucket != "" {
		s3Dest, err := admxsync.NewS3Destination(
			context.Background(),
			cfg.SyncS3Bucket,
			cfg.SyncS3Prefix,
			cfg.SyncS3Region,
			cfg.SyncS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "prefix", cfg.SyncS3Prefix)
		}
	}

	if cfg.SyncGitRepo != "" {
		dests = append(dests, admxsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitDir, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "dir", cfg.SyncGitDir)
	}

	return dests
}
