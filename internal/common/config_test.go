package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("data", "pending"), cfg.Paths.PendingDir)
	assert.Equal(t, "complete_metadata.json", cfg.Paths.CatalogFile)
	assert.Equal(t, "pdf_insight.db", cfg.Paths.DatabaseFile)
	assert.Equal(t, 8, cfg.Processing.HexIDLength)
	assert.True(t, cfg.Processing.SkipProcessedFiles)
	assert.False(t, cfg.Embeddings.Enabled)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
paths:
  pending_dir: /var/pdfs/in
  database_file: /var/pdfs/catalog.db
processing:
  hex_id_length: 12
  schedule: "*/5 * * * *"
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/pdfs/in", cfg.Paths.PendingDir)
	assert.Equal(t, "/var/pdfs/catalog.db", cfg.Paths.DatabaseFile)
	assert.Equal(t, 12, cfg.Processing.HexIDLength)
	assert.Equal(t, "*/5 * * * *", cfg.Processing.Schedule)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Unset fields keep their defaults.
	assert.Equal(t, 768, cfg.Embeddings.Dimensions)
}

func TestLoadConfig_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Processing.HexIDLength)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PDF_PENDING_DIR", "/env/pending")
	t.Setenv("PDF_HEX_ID_LENGTH", "16")
	t.Setenv("SERVER_ADDR", ":9090")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/env/pending", cfg.Paths.PendingDir)
	assert.Equal(t, 16, cfg.Processing.HexIDLength)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths.PendingDir = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Processing.HexIDLength = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Paths.DatabaseFile = ""
	cfg.Paths.CatalogFile = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Embeddings.Enabled = true
	assert.Error(t, cfg.Validate())
	cfg.Embeddings.PostgresDSN = "postgres://localhost/vectors"
	assert.NoError(t, cfg.Validate())
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.Paths.PendingDir = filepath.Join(base, "pending")
	cfg.Paths.ProcessedDir = filepath.Join(base, "processed")
	cfg.Paths.ImagesDir = filepath.Join(base, "images")
	cfg.Paths.TextDir = filepath.Join(base, "text")

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.Paths.PendingDir, cfg.Paths.ProcessedDir, cfg.Paths.ImagesDir, cfg.Paths.TextDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
