package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalade/pdf-insight/internal/entity"
)

func newFlatCatalog(t *testing.T) (*FlatCatalog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	c, err := NewFlatCatalog(path, nil)
	require.NoError(t, err)
	return c, path
}

func TestFlatCatalog_CreatesEmptyFile(t *testing.T) {
	_, path := newFlatCatalog(t)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestFlatCatalog_UpsertAndGet(t *testing.T) {
	c, _ := newFlatCatalog(t)
	ctx := context.Background()

	id, err := c.UpsertDocument(ctx, "report.pdf", sampleMetadata())
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentID(0), id)

	exists, err := c.Exists(ctx, "report.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	doc, err := c.GetDocument(ctx, "report.pdf")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Q1 Report", *doc.Title)
	assert.Equal(t, 5, doc.NumPages)
	assert.False(t, doc.ProcessedAt.IsZero())

	// Same filename overwrites rather than duplicating.
	meta := sampleMetadata()
	meta.NumPages = 9
	_, err = c.UpsertDocument(ctx, "report.pdf", meta)
	require.NoError(t, err)

	count, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	doc, err = c.GetDocument(ctx, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, 9, doc.NumPages)
}

func TestFlatCatalog_MigratesLegacyArrayFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	legacy := `[
		{"a.pdf": {"title": "first", "num_pages": 1, "processed_at": "2024-01-01T00:00:00Z"}},
		{"b.pdf": {"title": "other", "num_pages": 2, "processed_at": "2024-01-02T00:00:00Z"}},
		{"a.pdf": {"title": "second", "num_pages": 3, "processed_at": "2024-01-03T00:00:00Z"}}
	]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	c, err := NewFlatCatalog(path, nil)
	require.NoError(t, err)
	ctx := context.Background()

	// Duplicate filenames collapse with the later occurrence winning.
	count, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	doc, err := c.GetDocument(ctx, "a.pdf")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "second", *doc.Title)
	assert.Equal(t, 3, doc.NumPages)

	// The migration is persisted as a mapping.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Len(t, onDisk, 2)
}

func TestFlatCatalog_UnparseableFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	c, err := NewFlatCatalog(path, nil)
	require.NoError(t, err)
	ctx := context.Background()

	count, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// The catalog stays usable after the corruption.
	_, err = c.UpsertDocument(ctx, "fresh.pdf", entity.Metadata{NumPages: 1})
	require.NoError(t, err)
	exists, err := c.Exists(ctx, "fresh.pdf")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFlatCatalog_ListOrdering(t *testing.T) {
	c, _ := newFlatCatalog(t)
	ctx := context.Background()

	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		_, err := c.UpsertDocument(ctx, name, entity.Metadata{})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	_, err := c.UpsertDocument(ctx, "a.pdf", entity.Metadata{})
	require.NoError(t, err)

	docs, err := c.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.pdf", docs[0].Filename)
	assert.Equal(t, "c.pdf", docs[1].Filename)
	assert.Equal(t, "b.pdf", docs[2].Filename)
}

func TestFlatCatalog_Delete(t *testing.T) {
	c, _ := newFlatCatalog(t)
	ctx := context.Background()

	_, err := c.UpsertDocument(ctx, "doc.pdf", entity.Metadata{})
	require.NoError(t, err)

	deleted, err := c.DeleteDocument(ctx, "doc.pdf")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = c.DeleteDocument(ctx, "doc.pdf")
	require.NoError(t, err)
	assert.False(t, deleted)

	exists, err := c.Exists(ctx, "doc.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}
