package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/jalade/pdf-insight/internal/common"
	"github.com/jalade/pdf-insight/internal/entity"
	"github.com/jalade/pdf-insight/internal/repository"
)

// Service is the embeddings collaborator: it chunks document text, generates
// vectors through Ollama, stores them in pgvector, and keeps the catalog's
// embeddings status flag in step.
type Service struct {
	catalog      repository.ReferenceCatalog
	embedder     *OllamaEmbedder
	store        *ChunkStore
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

func NewService(
	catalog repository.ReferenceCatalog,
	embedder *OllamaEmbedder,
	store *ChunkStore,
	chunkSize, chunkOverlap int,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &Service{
		catalog:      catalog,
		embedder:     embedder,
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// IndexDocument chunks text, embeds every chunk, stores the vectors, and
// records the chunk count on the document. Returns the number of chunks.
func (s *Service) IndexDocument(ctx context.Context, id entity.DocumentID, filename, text string) (int, error) {
	chunks := SplitText(text, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		s.logger.Warn("no chunks generated", "pdf_id", id, "filename", filename)
		return 0, nil
	}

	rows := make([]*Chunk, 0, len(chunks))
	for i, content := range chunks {
		vec, err := s.embedder.Embed(ctx, content)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		rows = append(rows, &Chunk{
			ID:         uuid.New(),
			DocumentID: int64(id),
			Filename:   filename,
			ChunkIndex: i,
			Content:    content,
			Embedding:  pgvector.NewVector(vec),
		})
	}

	if err := s.store.InsertChunksBatch(ctx, rows); err != nil {
		return 0, err
	}
	if err := s.catalog.SetEmbeddingsStatus(ctx, id, len(rows)); err != nil {
		return 0, err
	}
	s.logger.Info("stored embeddings", "pdf_id", id, "filename", filename, "chunks", len(rows))
	return len(rows), nil
}

// RemoveDocument drops all vectors for the document and clears its status
// flag. Removing a document that was never indexed is not an error.
func (s *Service) RemoveDocument(ctx context.Context, id entity.DocumentID) error {
	deleted, err := s.store.DeleteByDocument(ctx, int64(id))
	if err != nil {
		return err
	}
	if err := s.catalog.ClearEmbeddingsStatus(ctx, id); err != nil && !errors.Is(err, common.ErrInvalidReference) {
		return err
	}
	if deleted > 0 {
		s.logger.Info("deleted embeddings", "pdf_id", id, "chunks", deleted)
	}
	return nil
}

// Search embeds the query and returns the closest chunks.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.store.Search(ctx, vec, limit)
}
