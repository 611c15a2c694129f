package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jalade/pdf-insight/internal/common"
	"github.com/jalade/pdf-insight/internal/entity"
)

// SQLiteCatalog is the relational persistence backend: three related tables
// with cascading deletes from documents to their image/text references. It
// implements the full ReferenceCatalog capability.
type SQLiteCatalog struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ ReferenceCatalog = (*SQLiteCatalog)(nil)

// NewSQLiteCatalog opens (creating if necessary) the database file at path
// and ensures the schema exists.
func NewSQLiteCatalog(path string, logger *slog.Logger) (*SQLiteCatalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", common.ErrPersistence)
		}
	}

	// foreign_keys is per-connection in SQLite; carrying it in the DSN makes
	// every connection the pool ever opens enforce it, including replacements
	// after a dropped connection.
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, common.ErrPersistence)
	}
	// One writer process, one connection: keeps PRAGMA state consistent and
	// matches the single-operator resource model.
	db.SetMaxOpenConns(1)

	c := &SQLiteCatalog{db: db, logger: logger}
	if err := c.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("database initialized", "path", path)
	return c, nil
}

// Close releases the underlying database handle.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

func (c *SQLiteCatalog) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pdf_documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT UNIQUE NOT NULL,
			title TEXT,
			author TEXT,
			subject TEXT,
			creator TEXT,
			producer TEXT,
			creation_date TEXT,
			modification_date TEXT,
			num_pages INTEGER NOT NULL DEFAULT 0,
			total_words INTEGER NOT NULL DEFAULT 0,
			total_images INTEGER NOT NULL DEFAULT 0,
			total_attachments INTEGER NOT NULL DEFAULT 0,
			processed_at TEXT NOT NULL,
			embeddings_count INTEGER,
			embeddings_updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS images (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pdf_id INTEGER NOT NULL,
			filename TEXT NOT NULL,
			page_number INTEGER NOT NULL,
			image_index INTEGER NOT NULL,
			file_extension TEXT,
			extracted_at TEXT NOT NULL,
			FOREIGN KEY (pdf_id) REFERENCES pdf_documents (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS texts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pdf_id INTEGER NOT NULL UNIQUE,
			filename TEXT NOT NULL,
			word_count INTEGER NOT NULL DEFAULT 0,
			extracted_at TEXT NOT NULL,
			FOREIGN KEY (pdf_id) REFERENCES pdf_documents (id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pdf_filename ON pdf_documents(filename)`,
		`CREATE INDEX IF NOT EXISTS idx_images_pdf_id ON images(pdf_id)`,
		`CREATE INDEX IF NOT EXISTS idx_texts_pdf_id ON texts(pdf_id)`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %v: %w", err, common.ErrPersistence)
		}
	}
	return nil
}

// Exists implements DocumentCatalog.
func (c *SQLiteCatalog) Exists(ctx context.Context, filename string) (bool, error) {
	var id int64
	err := c.db.QueryRowContext(ctx, `SELECT id FROM pdf_documents WHERE filename = ?`, filename).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query document %s: %v: %w", filename, err, common.ErrPersistence)
	}
	return true, nil
}

// UpsertDocument implements DocumentCatalog. Both branches run inside one
// transaction; the update branch also clears stale image/text references so
// re-processing never accumulates rows pointing at superseded files.
func (c *SQLiteCatalog) UpsertDocument(ctx context.Context, filename string, meta entity.Metadata) (entity.DocumentID, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %v: %w", err, common.ErrPersistence)
	}
	defer func() { _ = tx.Rollback() }()

	processedAt := time.Now().UTC().Format(time.RFC3339Nano)

	var id int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM pdf_documents WHERE filename = ?`, filename).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := tx.ExecContext(ctx, `
			INSERT INTO pdf_documents (
				filename, title, author, subject, creator, producer,
				creation_date, modification_date, num_pages, total_words,
				total_images, total_attachments, processed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			filename, meta.Title, meta.Author, meta.Subject, meta.Creator, meta.Producer,
			meta.CreationDate, meta.ModificationDate, meta.NumPages, meta.TotalWords,
			meta.TotalImages, meta.TotalAttachments, processedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert document %s: %v: %w", filename, err, common.ErrPersistence)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("document id for %s: %v: %w", filename, err, common.ErrPersistence)
		}
		c.logger.Info("added new document", "filename", filename, "id", id)
	case err != nil:
		return 0, fmt.Errorf("lookup document %s: %v: %w", filename, err, common.ErrPersistence)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE pdf_documents SET
				title = ?, author = ?, subject = ?, creator = ?,
				producer = ?, creation_date = ?, modification_date = ?,
				num_pages = ?, total_words = ?, total_images = ?,
				total_attachments = ?, processed_at = ?
			WHERE id = ?`,
			meta.Title, meta.Author, meta.Subject, meta.Creator,
			meta.Producer, meta.CreationDate, meta.ModificationDate,
			meta.NumPages, meta.TotalWords, meta.TotalImages,
			meta.TotalAttachments, processedAt, id,
		)
		if err != nil {
			return 0, fmt.Errorf("update document %s: %v: %w", filename, err, common.ErrPersistence)
		}
		// References from the prior processing are superseded wholesale.
		if _, err := tx.ExecContext(ctx, `DELETE FROM images WHERE pdf_id = ?`, id); err != nil {
			return 0, fmt.Errorf("clear stale images for %s: %v: %w", filename, err, common.ErrPersistence)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM texts WHERE pdf_id = ?`, id); err != nil {
			return 0, fmt.Errorf("clear stale text for %s: %v: %w", filename, err, common.ErrPersistence)
		}
		c.logger.Info("updated existing document", "filename", filename, "id", id)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert %s: %v: %w", filename, err, common.ErrPersistence)
	}
	return entity.DocumentID(id), nil
}

// AttachImage implements ReferenceCatalog.
func (c *SQLiteCatalog) AttachImage(ctx context.Context, id entity.DocumentID, filename string, page, index int, extension string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attach image: %v: %w", err, common.ErrPersistence)
	}
	defer func() { _ = tx.Rollback() }()

	if err := documentLive(ctx, tx, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO images (pdf_id, filename, page_number, image_index, file_extension, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		int64(id), filename, page, index, extension, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert image reference %s: %v: %w", filename, err, common.ErrPersistence)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit image reference: %v: %w", err, common.ErrPersistence)
	}
	c.logger.Debug("added image reference", "pdf_id", id, "filename", filename, "page", page, "index", index)
	return nil
}

// AttachText implements ReferenceCatalog. A prior text reference for the same
// document is deleted in the same transaction, keeping at most one live row.
func (c *SQLiteCatalog) AttachText(ctx context.Context, id entity.DocumentID, filename string, wordCount int) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attach text: %v: %w", err, common.ErrPersistence)
	}
	defer func() { _ = tx.Rollback() }()

	if err := documentLive(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM texts WHERE pdf_id = ?`, int64(id)); err != nil {
		return fmt.Errorf("replace text reference: %v: %w", err, common.ErrPersistence)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO texts (pdf_id, filename, word_count, extracted_at)
		VALUES (?, ?, ?, ?)`,
		int64(id), filename, wordCount, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert text reference %s: %v: %w", filename, err, common.ErrPersistence)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit text reference: %v: %w", err, common.ErrPersistence)
	}
	c.logger.Debug("added text reference", "pdf_id", id, "filename", filename, "word_count", wordCount)
	return nil
}

// documentLive verifies id names an existing document row.
func documentLive(ctx context.Context, tx *sql.Tx, id entity.DocumentID) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM pdf_documents WHERE id = ?`, int64(id)).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("document id %d: %w", id, common.ErrInvalidReference)
	}
	if err != nil {
		return fmt.Errorf("verify document id %d: %v: %w", id, err, common.ErrPersistence)
	}
	return nil
}

// GetDocument implements DocumentCatalog.
func (c *SQLiteCatalog) GetDocument(ctx context.Context, filename string) (*entity.Document, error) {
	row := c.db.QueryRowContext(ctx, documentColumns+` FROM pdf_documents WHERE filename = ?`, filename)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %v: %w", filename, err, common.ErrPersistence)
	}
	return doc, nil
}

// ListDocuments implements DocumentCatalog. Ordering is most recently
// processed first; equal timestamps fall back to filename so the order stays
// stable.
func (c *SQLiteCatalog) ListDocuments(ctx context.Context) ([]entity.Document, error) {
	rows, err := c.db.QueryContext(ctx, documentColumns+` FROM pdf_documents ORDER BY processed_at DESC, filename ASC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %v: %w", err, common.ErrPersistence)
	}
	defer rows.Close()

	var docs []entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %v: %w", err, common.ErrPersistence)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %v: %w", err, common.ErrPersistence)
	}
	return docs, nil
}

// Count implements DocumentCatalog.
func (c *SQLiteCatalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pdf_documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %v: %w", err, common.ErrPersistence)
	}
	return n, nil
}

// DeleteDocument implements DocumentCatalog. The cascade rule removes all
// image/text references owned by the document.
func (c *SQLiteCatalog) DeleteDocument(ctx context.Context, filename string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM pdf_documents WHERE filename = ?`, filename)
	if err != nil {
		return false, fmt.Errorf("delete document %s: %v: %w", filename, err, common.ErrPersistence)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete document %s: %v: %w", filename, err, common.ErrPersistence)
	}
	if affected == 0 {
		c.logger.Warn("no document to delete", "filename", filename)
		return false, nil
	}
	c.logger.Info("deleted document and related references", "filename", filename)
	return true, nil
}

// GetImagesByDocument implements ReferenceCatalog.
func (c *SQLiteCatalog) GetImagesByDocument(ctx context.Context, id entity.DocumentID) ([]entity.ImageRef, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, pdf_id, filename, page_number, image_index, file_extension, extracted_at
		FROM images WHERE pdf_id = ? ORDER BY page_number, image_index`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("list images for %d: %v: %w", id, err, common.ErrPersistence)
	}
	defer rows.Close()

	var refs []entity.ImageRef
	for rows.Next() {
		var (
			ref entity.ImageRef
			ext sql.NullString
			at  string
		)
		if err := rows.Scan(&ref.ID, &ref.DocumentID, &ref.Filename, &ref.PageNumber, &ref.ImageIndex, &ext, &at); err != nil {
			return nil, fmt.Errorf("scan image reference: %v: %w", err, common.ErrPersistence)
		}
		ref.FileExtension = ext.String
		ref.ExtractedAt = parseStoredTime(at)
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// GetTextByDocument implements ReferenceCatalog.
func (c *SQLiteCatalog) GetTextByDocument(ctx context.Context, id entity.DocumentID) (*entity.TextRef, error) {
	var (
		ref entity.TextRef
		at  string
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT id, pdf_id, filename, word_count, extracted_at
		FROM texts WHERE pdf_id = ?`, int64(id)).
		Scan(&ref.ID, &ref.DocumentID, &ref.Filename, &ref.WordCount, &at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get text for %d: %v: %w", id, err, common.ErrPersistence)
	}
	ref.ExtractedAt = parseStoredTime(at)
	return &ref, nil
}

// SetEmbeddingsStatus implements ReferenceCatalog.
func (c *SQLiteCatalog) SetEmbeddingsStatus(ctx context.Context, id entity.DocumentID, chunkCount int) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE pdf_documents SET embeddings_count = ?, embeddings_updated_at = ? WHERE id = ?`,
		chunkCount, time.Now().UTC().Format(time.RFC3339Nano), int64(id))
	if err != nil {
		return fmt.Errorf("set embeddings status for %d: %v: %w", id, err, common.ErrPersistence)
	}
	return requireRow(res, id)
}

// ClearEmbeddingsStatus implements ReferenceCatalog.
func (c *SQLiteCatalog) ClearEmbeddingsStatus(ctx context.Context, id entity.DocumentID) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE pdf_documents SET embeddings_count = NULL, embeddings_updated_at = NULL WHERE id = ?`, int64(id))
	if err != nil {
		return fmt.Errorf("clear embeddings status for %d: %v: %w", id, err, common.ErrPersistence)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id entity.DocumentID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %v: %w", err, common.ErrPersistence)
	}
	if affected == 0 {
		return fmt.Errorf("document id %d: %w", id, common.ErrInvalidReference)
	}
	return nil
}

const documentColumns = `
	SELECT id, filename, title, author, subject, creator, producer,
		creation_date, modification_date, num_pages, total_words,
		total_images, total_attachments, processed_at,
		embeddings_count, embeddings_updated_at`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*entity.Document, error) {
	var (
		doc                          entity.Document
		title, author, subject       sql.NullString
		creator, producer            sql.NullString
		creationDate, modDate        sql.NullString
		processedAt                  string
		embCount                     sql.NullInt64
		embUpdatedAt                 sql.NullString
	)
	err := s.Scan(
		&doc.ID, &doc.Filename, &title, &author, &subject, &creator, &producer,
		&creationDate, &modDate, &doc.NumPages, &doc.TotalWords,
		&doc.TotalImages, &doc.TotalAttachments, &processedAt,
		&embCount, &embUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Title = nullableString(title)
	doc.Author = nullableString(author)
	doc.Subject = nullableString(subject)
	doc.Creator = nullableString(creator)
	doc.Producer = nullableString(producer)
	doc.CreationDate = nullableString(creationDate)
	doc.ModificationDate = nullableString(modDate)
	doc.ProcessedAt = parseStoredTime(processedAt)
	if embCount.Valid {
		n := int(embCount.Int64)
		doc.EmbeddingsCount = &n
	}
	if embUpdatedAt.Valid {
		t := parseStoredTime(embUpdatedAt.String)
		doc.EmbeddingsUpdatedAt = &t
	}
	return &doc, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func parseStoredTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
