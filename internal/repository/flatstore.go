package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jalade/pdf-insight/internal/common"
	"github.com/jalade/pdf-insight/internal/entity"
)

// flatRecord is the on-disk shape of one catalog entry: the document fields
// flattened together with the processing timestamp.
type flatRecord struct {
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
	ProcessedAt      string  `json:"processed_at"`
}

// FlatCatalog persists documents as a single JSON file mapping filename to a
// flattened record. Every logical operation reads the whole mapping and every
// mutation rewrites the whole file, which is acceptable at the document counts
// this backend targets (hundreds). Image/text references and embeddings status
// are not representable here; callers needing them hold a ReferenceCatalog.
//
// Known weakness: a crash between the read and the rewrite can truncate the
// file. Single-operator use accepts this.
type FlatCatalog struct {
	path   string
	logger *slog.Logger
}

var _ DocumentCatalog = (*FlatCatalog)(nil)

// NewFlatCatalog opens (creating if necessary) the catalog file at path.
func NewFlatCatalog(path string, logger *slog.Logger) (*FlatCatalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &FlatCatalog{path: path, logger: logger}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", common.ErrPersistence)
		}
		if err := c.save(map[string]flatRecord{}); err != nil {
			return nil, err
		}
		logger.Info("created new catalog file", "path", path)
	}
	return c, nil
}

// load reads the whole mapping into memory. Legacy array-form files are
// migrated in place before the mapping is returned; unparseable content is
// treated as an empty catalog and logged rather than surfaced.
func (c *FlatCatalog) load() (map[string]flatRecord, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]flatRecord{}, nil
		}
		return nil, fmt.Errorf("read catalog %s: %w", c.path, common.ErrPersistence)
	}
	if len(raw) == 0 {
		return map[string]flatRecord{}, nil
	}

	var data map[string]flatRecord
	if err := json.Unmarshal(raw, &data); err == nil {
		return data, nil
	}

	// Older versions appended a list of single-entry mappings instead of
	// keeping one merged mapping.
	var legacy []map[string]flatRecord
	if err := json.Unmarshal(raw, &legacy); err == nil {
		c.logger.Warn("detected legacy array catalog format, migrating", "path", c.path, "entries", len(legacy))
		migrated := migrateFromArray(legacy)
		if err := c.save(migrated); err != nil {
			return nil, err
		}
		c.logger.Info("migrated catalog to mapping format", "entries", len(legacy), "unique", len(migrated))
		return migrated, nil
	}

	c.logger.Error("catalog file is not parseable, treating as empty", "path", c.path)
	return map[string]flatRecord{}, nil
}

// migrateFromArray merges single-entry mappings in order; when the same
// filename appears more than once the later occurrence wins, matching the
// semantics of repeated upserts.
func migrateFromArray(legacy []map[string]flatRecord) map[string]flatRecord {
	migrated := make(map[string]flatRecord, len(legacy))
	for _, item := range legacy {
		for filename, rec := range item {
			migrated[filename] = rec
		}
	}
	return migrated
}

func (c *FlatCatalog) save(data map[string]flatRecord) error {
	buf, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", common.ErrPersistence)
	}
	if err := os.WriteFile(c.path, buf, 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", c.path, common.ErrPersistence)
	}
	return nil
}

// Exists implements DocumentCatalog.
func (c *FlatCatalog) Exists(ctx context.Context, filename string) (bool, error) {
	data, err := c.load()
	if err != nil {
		return false, err
	}
	_, ok := data[filename]
	return ok, nil
}

// UpsertDocument implements DocumentCatalog. The returned id is always zero;
// the flat catalog assigns no surrogate identifiers.
func (c *FlatCatalog) UpsertDocument(ctx context.Context, filename string, meta entity.Metadata) (entity.DocumentID, error) {
	data, err := c.load()
	if err != nil {
		return 0, err
	}
	if _, ok := data[filename]; ok {
		c.logger.Info("updating existing catalog entry", "filename", filename)
	} else {
		c.logger.Info("adding new catalog entry", "filename", filename)
	}
	data[filename] = flatRecord{
		Title:            meta.Title,
		Author:           meta.Author,
		Subject:          meta.Subject,
		Creator:          meta.Creator,
		Producer:         meta.Producer,
		CreationDate:     meta.CreationDate,
		ModificationDate: meta.ModificationDate,
		NumPages:         meta.NumPages,
		TotalWords:       meta.TotalWords,
		TotalImages:      meta.TotalImages,
		TotalAttachments: meta.TotalAttachments,
		ProcessedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := c.save(data); err != nil {
		return 0, err
	}
	return 0, nil
}

// GetDocument implements DocumentCatalog.
func (c *FlatCatalog) GetDocument(ctx context.Context, filename string) (*entity.Document, error) {
	data, err := c.load()
	if err != nil {
		return nil, err
	}
	rec, ok := data[filename]
	if !ok {
		return nil, nil
	}
	doc := rec.toDocument(filename)
	return &doc, nil
}

// ListDocuments implements DocumentCatalog. The backing mapping preserves no
// order of its own, so ordering is reconstructed from each record's
// processed_at field (descending, filename ascending on ties).
func (c *FlatCatalog) ListDocuments(ctx context.Context) ([]entity.Document, error) {
	data, err := c.load()
	if err != nil {
		return nil, err
	}
	docs := make([]entity.Document, 0, len(data))
	for filename, rec := range data {
		docs = append(docs, rec.toDocument(filename))
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].ProcessedAt.Equal(docs[j].ProcessedAt) {
			return docs[i].ProcessedAt.After(docs[j].ProcessedAt)
		}
		return docs[i].Filename < docs[j].Filename
	})
	return docs, nil
}

// Count implements DocumentCatalog.
func (c *FlatCatalog) Count(ctx context.Context) (int, error) {
	data, err := c.load()
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// DeleteDocument implements DocumentCatalog.
func (c *FlatCatalog) DeleteDocument(ctx context.Context, filename string) (bool, error) {
	data, err := c.load()
	if err != nil {
		return false, err
	}
	if _, ok := data[filename]; !ok {
		c.logger.Warn("no catalog entry to delete", "filename", filename)
		return false, nil
	}
	delete(data, filename)
	if err := c.save(data); err != nil {
		return false, err
	}
	c.logger.Info("removed catalog entry", "filename", filename)
	return true, nil
}

func (r flatRecord) toDocument(filename string) entity.Document {
	processedAt, err := time.Parse(time.RFC3339Nano, r.ProcessedAt)
	if err != nil {
		processedAt = time.Time{}
	}
	return entity.Document{
		Filename: filename,
		Metadata: entity.Metadata{
			Title:            r.Title,
			Author:           r.Author,
			Subject:          r.Subject,
			Creator:          r.Creator,
			Producer:         r.Producer,
			CreationDate:     r.CreationDate,
			ModificationDate: r.ModificationDate,
			NumPages:         r.NumPages,
			TotalWords:       r.TotalWords,
			TotalImages:      r.TotalImages,
			TotalAttachments: r.TotalAttachments,
		},
		ProcessedAt: processedAt,
	}
}
