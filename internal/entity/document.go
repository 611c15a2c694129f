package entity

import "time"

// DocumentID is the catalog-assigned surrogate identifier for a document.
// The flat catalog has no surrogate ids and always reports zero.
type DocumentID int64

// Metadata holds the descriptive fields and derived counters extracted from a
// PDF. Descriptive fields are pointers so that "absent" stays distinct from
// the empty string; dates are ISO-8601 text.
type Metadata struct {
	Title            *string `json:"title"`
	Author           *string `json:"author"`
	Subject          *string `json:"subject"`
	Creator          *string `json:"creator"`
	Producer         *string `json:"producer"`
	CreationDate     *string `json:"creation_date"`
	ModificationDate *string `json:"modification_date"`
	NumPages         int     `json:"num_pages"`
	TotalWords       int     `json:"total_words"`
	TotalImages      int     `json:"total_images"`
	TotalAttachments int     `json:"total_attachments"`
}

// Document represents one processed source file for data transfer between layers.
type Document struct {
	ID       DocumentID `json:"id"`
	Filename string     `json:"filename"`
	Metadata
	ProcessedAt         time.Time  `json:"processed_at"`
	EmbeddingsCount     *int       `json:"embeddings_count,omitempty"`
	EmbeddingsUpdatedAt *time.Time `json:"embeddings_updated_at,omitempty"`
}

// ImageRef points at one image file extracted from a document.
type ImageRef struct {
	ID            int64      `json:"id"`
	DocumentID    DocumentID `json:"pdf_id"`
	Filename      string     `json:"filename"`
	PageNumber    int        `json:"page_number"`
	ImageIndex    int        `json:"image_index"`
	FileExtension string     `json:"file_extension"`
	ExtractedAt   time.Time  `json:"extracted_at"`
}

// TextRef points at the full-text blob extracted from a document. At most one
// exists per document.
type TextRef struct {
	ID          int64      `json:"id"`
	DocumentID  DocumentID `json:"pdf_id"`
	Filename    string     `json:"filename"`
	WordCount   int        `json:"word_count"`
	ExtractedAt time.Time  `json:"extracted_at"`
}
