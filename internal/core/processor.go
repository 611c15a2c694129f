package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jalade/pdf-insight/internal/entity"
	"github.com/jalade/pdf-insight/internal/extract"
	"github.com/jalade/pdf-insight/internal/ingest"
	"github.com/jalade/pdf-insight/internal/repository"
)

// TextIndexer is the hook the external embeddings collaborator implements.
// The processor only reports text and identity; chunking, vectors, and search
// belong entirely to the collaborator.
type TextIndexer interface {
	IndexDocument(ctx context.Context, id entity.DocumentID, filename, text string) (int, error)
	RemoveDocument(ctx context.Context, id entity.DocumentID) error
}

// Options are the per-run processing toggles.
type Options struct {
	PendingDir          string
	ProcessedDir        string
	ImagesDir           string
	TextDir             string
	ExtractImages       bool
	ExtractText         bool
	MoveAfterProcessing bool
	SkipProcessedFiles  bool
	HexIDLength         int
}

// BatchStats summarizes one batch run.
type BatchStats struct {
	RunID     string `json:"run_id"`
	Found     int    `json:"found"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Moved     int    `json:"moved"`
}

// Processor coordinates one batch over the pending folder: skip duplicates,
// extract, persist, register derived artifacts, move sources.
type Processor struct {
	logger    *slog.Logger
	catalog   repository.DocumentCatalog
	refs      repository.ReferenceCatalog
	extractor *extract.Extractor
	files     *ingest.Files
	indexer   TextIndexer
	opts      Options
}

// NewProcessor wires a processor. refs may be nil when running against the
// flat catalog, in which case derived artifacts are still written to disk but
// no references are recorded. indexer may be nil when embeddings are
// disabled.
func NewProcessor(
	logger *slog.Logger,
	catalog repository.DocumentCatalog,
	refs repository.ReferenceCatalog,
	extractor *extract.Extractor,
	files *ingest.Files,
	indexer TextIndexer,
	opts Options,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:    logger,
		catalog:   catalog,
		refs:      refs,
		extractor: extractor,
		files:     files,
		indexer:   indexer,
		opts:      opts,
	}
}

// ProcessPending runs one batch. A failing file never aborts the batch; it is
// counted and the run continues with the next one.
func (p *Processor) ProcessPending(ctx context.Context) (BatchStats, error) {
	stats := BatchStats{RunID: uuid.NewString()}
	log := p.logger.With("run_id", stats.RunID)

	paths, err := p.files.ListPDFs(p.opts.PendingDir)
	if err != nil {
		return stats, fmt.Errorf("scan pending: %w", err)
	}
	stats.Found = len(paths)
	if len(paths) == 0 {
		log.Info("no pdf files to process", "dir", p.opts.PendingDir)
		return stats, nil
	}

	var processed []string
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		filename := filepath.Base(path)

		if p.opts.SkipProcessedFiles {
			exists, err := p.catalog.Exists(ctx, filename)
			if err != nil {
				log.Error("duplicate check failed", "filename", filename, "err", err)
				stats.Failed++
				continue
			}
			if exists {
				log.Info("skipping already processed file", "filename", filename)
				stats.Skipped++
				continue
			}
		}

		if err := p.processOne(ctx, log, path); err != nil {
			log.Error("processing failed", "filename", filename, "err", err)
			stats.Failed++
			continue
		}
		stats.Processed++
		processed = append(processed, filename)
	}

	if p.opts.MoveAfterProcessing {
		for _, filename := range processed {
			if _, err := p.files.MoveFile(filepath.Join(p.opts.PendingDir, filename), p.opts.ProcessedDir); err != nil {
				log.Error("move failed", "filename", filename, "err", err)
				continue
			}
			stats.Moved++
		}
	}

	log.Info("batch finished",
		"found", stats.Found,
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"moved", stats.Moved,
	)
	return stats, nil
}

func (p *Processor) processOne(ctx context.Context, log *slog.Logger, path string) error {
	filename := filepath.Base(path)
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	hexID, err := repository.NewHexID(p.opts.HexIDLength)
	if err != nil {
		return fmt.Errorf("hex id: %w", err)
	}

	res, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	id, err := p.catalog.UpsertDocument(ctx, filename, res.Metadata)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	log.Info("saved document metadata", "filename", filename, "id", id,
		"pages", res.Metadata.NumPages, "words", res.Metadata.TotalWords)

	if p.opts.ExtractImages {
		for _, blob := range res.Images {
			imgName, err := p.files.SaveImage(p.opts.ImagesDir, stem, hexID, blob.PageNumber, blob.PageIndex, blob.Extension, blob.Data)
			if err != nil {
				return fmt.Errorf("save image: %w", err)
			}
			if p.refs != nil {
				if err := p.refs.AttachImage(ctx, id, imgName, blob.PageNumber, blob.PageIndex, blob.Extension); err != nil {
					return fmt.Errorf("attach image: %w", err)
				}
			}
		}
		log.Info("extracted images", "filename", filename, "count", len(res.Images))
	}

	if p.opts.ExtractText {
		textName, err := p.files.SaveText(p.opts.TextDir, stem, hexID, res.Text)
		if err != nil {
			return fmt.Errorf("save text: %w", err)
		}
		if p.refs != nil {
			if err := p.refs.AttachText(ctx, id, textName, res.Metadata.TotalWords); err != nil {
				return fmt.Errorf("attach text: %w", err)
			}
		}
		if p.indexer != nil {
			// The document's derived text changed, so any prior vectors are
			// stale; drop them before indexing the new text.
			if err := p.indexer.RemoveDocument(ctx, id); err != nil {
				log.Warn("failed to drop stale embeddings", "filename", filename, "err", err)
			}
			chunks, err := p.indexer.IndexDocument(ctx, id, filename, res.Text)
			if err != nil {
				log.Warn("embedding indexing failed", "filename", filename, "err", err)
			} else {
				log.Info("indexed document text", "filename", filename, "chunks", chunks)
			}
		}
	}

	return nil
}

// Delete removes a document, its derived references, and any embeddings. It
// returns whether a document was actually deleted.
func (p *Processor) Delete(ctx context.Context, filename string) (bool, error) {
	if p.indexer != nil && p.refs != nil {
		doc, err := p.catalog.GetDocument(ctx, filename)
		if err != nil {
			return false, err
		}
		if doc != nil {
			if err := p.indexer.RemoveDocument(ctx, doc.ID); err != nil {
				p.logger.Warn("failed to remove embeddings", "filename", filename, "err", err)
			}
		}
	}
	return p.catalog.DeleteDocument(ctx, filename)
}
