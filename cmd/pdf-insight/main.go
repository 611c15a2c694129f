package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jalade/pdf-insight/internal/common"
	"github.com/jalade/pdf-insight/internal/core"
	"github.com/jalade/pdf-insight/internal/embeddings"
	"github.com/jalade/pdf-insight/internal/export"
	"github.com/jalade/pdf-insight/internal/extract"
	"github.com/jalade/pdf-insight/internal/ingest"
	"github.com/jalade/pdf-insight/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		backend    = flag.String("backend", "sqlite", "catalog backend: sqlite or flat")
		watch      = flag.Bool("watch", false, "keep running and process on a cron schedule")
		schedule   = flag.String("schedule", "", "cron schedule for -watch (overrides config)")
		exportOut  = flag.String("export", "", "export the catalog to this XLSX file and exit")
		deleteName = flag.String("delete", "", "delete this document from the catalog and exit")
		stats      = flag.Bool("stats", false, "print catalog statistics and exit")
	)
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(cfg.LogLevel)

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("failed to create directories", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wire the catalog. The flat backend only keeps document metadata, so the
	// reference catalog stays nil and derived artifacts are disk-only.
	var (
		catalog repository.DocumentCatalog
		refs    repository.ReferenceCatalog
	)
	switch *backend {
	case "sqlite":
		sq, err := repository.NewSQLiteCatalog(cfg.Paths.DatabaseFile, logger)
		if err != nil {
			logger.Error("failed to open sqlite catalog", "path", cfg.Paths.DatabaseFile, "err", err)
			os.Exit(1)
		}
		defer sq.Close()
		catalog, refs = sq, sq
	case "flat":
		fc, err := repository.NewFlatCatalog(cfg.Paths.CatalogFile, logger)
		if err != nil {
			logger.Error("failed to open flat catalog", "path", cfg.Paths.CatalogFile, "err", err)
			os.Exit(1)
		}
		catalog = fc
	default:
		printError("Error: unknown backend %q (want sqlite or flat)\n", *backend)
		os.Exit(1)
	}

	// Optional embeddings collaborator. Requires the reference catalog for the
	// status flag, so the flat backend never gets one.
	var indexer core.TextIndexer
	if cfg.Embeddings.Enabled && refs != nil {
		store, err := embeddings.NewChunkStore(ctx, cfg.Embeddings.PostgresDSN, cfg.Embeddings.Dimensions, logger)
		if err != nil {
			logger.Error("failed to connect vector store", "err", err)
			os.Exit(1)
		}
		defer store.Close()
		embedder := embeddings.NewOllamaEmbedder(cfg.Embeddings.OllamaURL, cfg.Embeddings.Model, cfg.Embeddings.Timeout)
		indexer = embeddings.NewService(refs, embedder, store, cfg.Embeddings.ChunkSize, cfg.Embeddings.ChunkOverlap, logger)
	}

	processor := core.NewProcessor(logger, catalog, refs, extract.NewExtractor(logger), ingest.NewFiles(logger), indexer, core.Options{
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

	switch {
	case *exportOut != "":
		runExport(ctx, logger, catalog, *exportOut)
	case *deleteName != "":
		runDelete(ctx, processor, *deleteName)
	case *stats:
		runStats(ctx, catalog)
	case *watch:
		spec := *schedule
		if spec == "" {
			spec = cfg.Processing.Schedule
		}
		if spec == "" {
			printError("Error: -watch requires -schedule or processing.schedule in the config\n")
			os.Exit(1)
		}
		runWatch(ctx, logger, processor, spec)
	default:
		runBatch(ctx, logger, processor)
	}
}

func runBatch(ctx context.Context, logger *slog.Logger, processor *core.Processor) {
	stats, err := processor.ProcessPending(ctx)
	if err != nil {
		logger.Error("batch run failed", "err", err)
		os.Exit(1)
	}
	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Run ID: %s\n", stats.RunID)
	fmt.Printf("- Found: %d\n", stats.Found)
	fmt.Printf("- Processed: %d\n", stats.Processed)
	fmt.Printf("- Skipped: %d\n", stats.Skipped)
	fmt.Printf("- Failed: %d\n", stats.Failed)
	fmt.Printf("- Moved: %d\n", stats.Moved)
}

func runWatch(ctx context.Context, logger *slog.Logger, processor *core.Processor, spec string) {
	scheduler := core.NewScheduler(logger)
	if err := scheduler.Start(spec, func() {
		if _, err := processor.ProcessPending(context.Background()); err != nil {
			logger.Error("scheduled run failed", "err", err)
		}
	}); err != nil {
		logger.Error("failed to start scheduler", "err", err)
		os.Exit(1)
	}
	logger.Info("watch mode active", "schedule", spec)
	<-ctx.Done()
	scheduler.Stop()
}

func runExport(ctx context.Context, logger *slog.Logger, catalog repository.DocumentCatalog, out string) {
	data, err := export.NewService(catalog, logger).ExportCatalogXLSX(ctx)
	if err != nil {
		logger.Error("export failed", "err", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		logger.Error("failed to write export file", "path", out, "err", err)
		os.Exit(1)
	}
	fmt.Printf("Exported catalog to %s\n", out)
}

func runDelete(ctx context.Context, processor *core.Processor, filename string) {
	deleted, err := processor.Delete(ctx, filename)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if !deleted {
		fmt.Printf("No document named %q\n", filename)
		os.Exit(1)
	}
	fmt.Printf("Deleted %s\n", filename)
}

func runStats(ctx context.Context, catalog repository.DocumentCatalog) {
	docs, err := catalog.ListDocuments(ctx)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	var pages, words, images, attachments int
	for _, d := range docs {
		pages += d.NumPages
		words += d.TotalWords
		images += d.TotalImages
		attachments += d.TotalAttachments
	}
	fmt.Printf("Catalog statistics:\n")
	fmt.Printf("- Documents: %d\n", len(docs))
	fmt.Printf("- Pages: %d\n", pages)
	fmt.Printf("- Words: %d\n", words)
	fmt.Printf("- Images: %d\n", images)
	fmt.Printf("- Attachments: %d\n", attachments)
}
