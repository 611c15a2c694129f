package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jalade/pdf-insight/internal/common"
	"github.com/jalade/pdf-insight/internal/core"
	"github.com/jalade/pdf-insight/internal/embeddings"
	"github.com/jalade/pdf-insight/internal/export"
	"github.com/jalade/pdf-insight/internal/extract"
	"github.com/jalade/pdf-insight/internal/ingest"
	"github.com/jalade/pdf-insight/internal/repository"
	"github.com/jalade/pdf-insight/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := common.NewLogger(cfg.LogLevel)

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("failed to create directories", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The daemon always runs on the relational backend; the API's reference
	// and embeddings endpoints need it.
	catalog, err := repository.NewSQLiteCatalog(cfg.Paths.DatabaseFile, logger)
	if err != nil {
		logger.Error("failed to open sqlite catalog", "path", cfg.Paths.DatabaseFile, "err", err)
		os.Exit(1)
	}
	defer catalog.Close()

	var (
		indexer  core.TextIndexer
		searcher server.Searcher
	)
	if cfg.Embeddings.Enabled {
		store, err := embeddings.NewChunkStore(ctx, cfg.Embeddings.PostgresDSN, cfg.Embeddings.Dimensions, logger)
		if err != nil {
			logger.Error("failed to connect vector store", "err", err)
			os.Exit(1)
		}
		defer store.Close()
		embedder := embeddings.NewOllamaEmbedder(cfg.Embeddings.OllamaURL, cfg.Embeddings.Model, cfg.Embeddings.Timeout)
		svc := embeddings.NewService(catalog, embedder, store, cfg.Embeddings.ChunkSize, cfg.Embeddings.ChunkOverlap, logger)
		indexer, searcher = svc, svc
	}

	processor := core.NewProcessor(logger, catalog, catalog, extract.NewExtractor(logger), ingest.NewFiles(logger), indexer, core.Options{
		PendingDir:          cfg.Paths.PendingDir,
		ProcessedDir:        cfg.Paths.ProcessedDir,
		ImagesDir:           cfg.Paths.ImagesDir,
		TextDir:             cfg.Paths.TextDir,
		ExtractImages:       cfg.Processing.ExtractImages,
		ExtractText:         cfg.Processing.ExtractText,
		MoveAfterProcessing: cfg.Processing.MoveAfterProcessing,
		SkipProcessedFiles:  cfg.Processing.SkipProcessedFiles,
		HexIDLength:         cfg.Processing.HexIDLength,
	})

	// Optional scheduled processing alongside the API.
	if cfg.Processing.Schedule != "" {
		scheduler := core.NewScheduler(logger)
		if err := scheduler.Start(cfg.Processing.Schedule, func() {
			if _, err := processor.ProcessPending(context.Background()); err != nil {
				logger.Error("scheduled run failed", "err", err)
			}
		}); err != nil {
			logger.Error("failed to start scheduler", "err", err)
			os.Exit(1)
		}
		defer scheduler.Stop()
	}

	srv := server.New(cfg.Server.Addr, logger, catalog, catalog, processor, export.NewService(catalog, logger), searcher)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "err", err)
		}
	}
	logger.Info("stopped")
}
