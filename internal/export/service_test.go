package export

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jalade/pdf-insight/internal/entity"
	"github.com/jalade/pdf-insight/internal/repository"
)

func TestExportCatalogXLSX(t *testing.T) {
	catalog, err := repository.NewSQLiteCatalog(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalog.Close() })
	ctx := context.Background()

	title := "Quarterly"
	_, err = catalog.UpsertDocument(ctx, "report.pdf", entity.Metadata{
		Title:      &title,
		NumPages:   5,
		TotalWords: 120,
	})
	require.NoError(t, err)

	data, err := NewService(catalog, nil).ExportCatalogXLSX(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Documents")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Filename", rows[0][0])
	assert.Equal(t, "report.pdf", rows[1][0])
	assert.Equal(t, "Quarterly", rows[1][1])
	assert.Equal(t, "5", rows[1][4])
}

func TestExportCatalogXLSX_EmptyCatalog(t *testing.T) {
	catalog, err := repository.NewSQLiteCatalog(filepath.Join(t.TempDir(), "empty.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalog.Close() })

	data, err := NewService(catalog, nil).ExportCatalogXLSX(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
