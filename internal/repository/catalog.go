package repository

import (
	"context"

	"github.com/jalade/pdf-insight/internal/entity"
)

// DocumentCatalog is the narrow capability both persistence backends provide:
// document-level bookkeeping keyed by unique filename.
type DocumentCatalog interface {
	// Exists reports whether a document with that exact filename is stored.
	// It never mutates state and is safe on an empty backing resource.
	Exists(ctx context.Context, filename string) (bool, error)
	// UpsertDocument inserts a new document or overwrites the one sharing the
	// filename, restamping processed_at. The write is all-or-nothing.
	UpsertDocument(ctx context.Context, filename string, meta entity.Metadata) (entity.DocumentID, error)
	// GetDocument returns nil (not an error) when the filename is absent.
	GetDocument(ctx context.Context, filename string) (*entity.Document, error)
	// ListDocuments returns all documents ordered by processed_at descending,
	// ties broken by filename ascending.
	ListDocuments(ctx context.Context) ([]entity.Document, error)
	// Count returns the document cardinality; always equals len(ListDocuments()).
	Count(ctx context.Context) (int, error)
	// DeleteDocument removes the document and everything derived from it.
	// Returns false, not an error, when the filename was absent.
	DeleteDocument(ctx context.Context, filename string) (bool, error)
}

// ReferenceCatalog is the wide capability: derived-artifact references and the
// embeddings status flag. Only the SQLite backend implements it; callers that
// need references must hold this type, which surfaces the flat catalog's
// limitation at compile time.
type ReferenceCatalog interface {
	DocumentCatalog

	// AttachImage adds one image reference. Fails with ErrInvalidReference if
	// id does not name a live document.
	AttachImage(ctx context.Context, id entity.DocumentID, filename string, page, index int, extension string) error
	// AttachText adds the text reference, replacing any prior one. At most one
	// exists per document.
	AttachText(ctx context.Context, id entity.DocumentID, filename string, wordCount int) error
	GetImagesByDocument(ctx context.Context, id entity.DocumentID) ([]entity.ImageRef, error)
	// GetTextByDocument returns nil when the document has no text reference.
	GetTextByDocument(ctx context.Context, id entity.DocumentID) (*entity.TextRef, error)

	// SetEmbeddingsStatus records that the external embeddings collaborator
	// produced chunkCount vectors for the document's text.
	SetEmbeddingsStatus(ctx context.Context, id entity.DocumentID, chunkCount int) error
	// ClearEmbeddingsStatus marks the document's embeddings as absent.
	ClearEmbeddingsStatus(ctx context.Context, id entity.DocumentID) error
}
