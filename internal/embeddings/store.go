package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Chunk is one embedded slice of a document's text as stored in pgvector.
type Chunk struct {
	ID         uuid.UUID
	DocumentID int64
	Filename   string
	ChunkIndex int
	Content    string
	Embedding  pgvector.Vector
}

// SearchResult is one semantic-search hit.
type SearchResult struct {
	DocumentID int64   `json:"pdf_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Distance   float64 `json:"distance"`
}

// ChunkStore persists chunk embeddings in Postgres with pgvector.
type ChunkStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewChunkStore connects to the vector database and ensures the schema.
func NewChunkStore(ctx context.Context, dsn string, dimensions int, logger *slog.Logger) (*ChunkStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping vector database: %w", err)
	}

	s := &ChunkStore{pool: pool, logger: logger}
	if err := s.ensureSchema(ctx, dimensions); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("vector store connected")
	return s, nil
}

func (s *ChunkStore) ensureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		dimensions = 768
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS pdf_chunks (
			id UUID PRIMARY KEY,
			pdf_id BIGINT NOT NULL,
			filename TEXT NOT NULL,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS idx_pdf_chunks_pdf_id ON pdf_chunks (pdf_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure vector schema: %w", err)
		}
	}
	return nil
}

// Close closes the connection pool.
func (s *ChunkStore) Close() {
	s.pool.Close()
}

// InsertChunksBatch inserts chunks in one round trip.
func (s *ChunkStore) InsertChunksBatch(ctx context.Context, chunks []*Chunk) error {
	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(
			`INSERT INTO pdf_chunks (id, pdf_id, filename, chunk_index, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			chunk.ID, chunk.DocumentID, chunk.Filename, chunk.ChunkIndex, chunk.Content, chunk.Embedding,
		)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(chunks); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	return nil
}

// DeleteByDocument removes every chunk owned by the given document.
func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pdf_chunks WHERE pdf_id = $1`, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete chunks for %d: %w", documentID, err)
	}
	return tag.RowsAffected(), nil
}

// Search returns the limit closest chunks to the query embedding.
func (s *ChunkStore) Search(ctx context.Context, embedding []float32, limit int) ([]SearchResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT pdf_id, filename, chunk_index, content, embedding <=> $1 AS distance
		 FROM pdf_chunks
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocumentID, &r.Filename, &r.ChunkIndex, &r.Content, &r.Distance); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
