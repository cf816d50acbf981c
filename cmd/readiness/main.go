package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rewired-gh/readiness/internal/config"
	"github.com/rewired-gh/readiness/internal/dataset"
	"github.com/rewired-gh/readiness/internal/logger"
	"github.com/rewired-gh/readiness/internal/models"
	"github.com/rewired-gh/readiness/internal/storage"
	"github.com/rewired-gh/readiness/internal/telegram"
	"github.com/rewired-gh/readiness/internal/web"
)

var (
	configPath  = flag.String("config", "configs/config.yaml", "Path to configuration file")
	printView   = flag.String("print", "", "Print a view as text and exit (summary, extremes, explorer)")
	topN        = flag.String("n", "", "Number of bases for the extremes view (default from config)")
	publishKind = flag.String("publish", "", "Publish a report to Telegram and exit (summary, extremes)")
	dumpPath    = flag.String("dump-reports", "", "Export the report archive as JSON to this path and exit")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	source, err := dataset.NewSource(ctx, cfg.Dataset)
	if err != nil {
		logger.Fatal("Failed to initialize dataset source: %v", err)
	}
	cache := dataset.NewCache(cfg.Dataset.CacheTTL)
	logger.Debug("Dataset source: %s (cache ttl: %v)", source.Key(), cfg.Dataset.CacheTTL)

	// Initialize storage
	var store *storage.Storage
	if cfg.Storage.Enabled {
		store, err = storage.New(cfg.Storage.DBPath, cfg.Storage.MaxReports)
		if err != nil {
			logger.Fatal("Failed to initialize storage: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close storage: %v", err)
			}
		}()
	} else {
		logger.Debug("Report archive disabled")
	}

	if *dumpPath != "" {
		if store == nil {
			logger.Fatal("Cannot dump reports: storage is disabled")
		}
		if err := store.Dump(ctx, *dumpPath); err != nil {
			logger.Fatal("Failed to dump reports: %v", err)
		}
		logger.Info("Report archive written to %s", *dumpPath)
		return
	}

	if *printView != "" {
		text, err := renderText(ctx, cfg, cache, source, *printView, *topN)
		if err != nil {
			logger.Fatal("Failed to render %s: %v", *printView, err)
		}
		fmt.Print(text)
		return
	}

	// Initialize Telegram publisher
	var publisher *telegram.Publisher
	if cfg.Telegram.Enabled {
		client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		var archive telegram.Archive
		if store != nil {
			archive = store
		}
		publisher = telegram.NewPublisher(client, archive, cfg.Telegram.Cooldown)
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram publishing disabled")
	}

	if *publishKind != "" {
		if publisher == nil {
			logger.Fatal("Cannot publish: telegram is disabled")
		}
		if *publishKind != models.ReportKindSummary && *publishKind != models.ReportKindExtremes {
			logger.Fatal("Unknown report kind %q (want summary or extremes)", *publishKind)
		}
		text, err := renderText(ctx, cfg, cache, source, *publishKind, *topN)
		if err != nil {
			logger.Fatal("Failed to render %s: %v", *publishKind, err)
		}
		result, err := publisher.Publish(ctx, *publishKind, text)
		if err != nil {
			logger.Fatal("Failed to publish: %v", err)
		}
		if !result.Sent {
			logger.Info("Nothing published: %s", result.Reason)
		}
		return
	}

	opts := web.Options{
		Analysis: cfg.Analysis,
		Source:   source,
		Cache:    cache,
		Metrics:  web.NewMetrics(),
	}
	if store != nil {
		opts.Reports = store
	}
	if publisher != nil {
		opts.Publisher = publisher
	}
	server, err := web.New(opts)
	if err != nil {
		logger.Fatal("Failed to initialize web server: %v", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, cleaning up...")
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
