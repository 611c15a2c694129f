package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
}

func TestListPDFs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.pdf"))
	writeFile(t, filepath.Join(dir, "a.PDF"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	writeFile(t, filepath.Join(dir, "image.png"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	f := NewFiles(nil)
	paths, err := f.ListPDFs(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "a.PDF"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b.pdf"), paths[1])
}

func TestListPDFs_MissingDirectory(t *testing.T) {
	f := NewFiles(nil)
	paths, err := f.ListPDFs(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestMoveFile(t *testing.T) {
	srcDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "processed")
	src := filepath.Join(srcDir, "doc.pdf")
	writeFile(t, src)

	f := NewFiles(nil)
	dest, err := f.MoveFile(src, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "doc.pdf"), dest)

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dest)
	assert.NoError(t, err)
}

func TestMoveFile_DestinationExists(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()
	src := filepath.Join(srcDir, "doc.pdf")
	writeFile(t, src)
	existing := filepath.Join(destDir, "doc.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("earlier copy"), 0o644))

	f := NewFiles(nil)
	dest, err := f.MoveFile(src, destDir)
	require.NoError(t, err)
	assert.Equal(t, existing, dest)

	// The move is skipped: source stays put, destination keeps its content.
	_, err = os.Stat(src)
	assert.NoError(t, err)
	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "earlier copy", string(content))
}

func TestSaveText(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "text")
	f := NewFiles(nil)

	name, err := f.SaveText(dir, "report", "a1b2c3d4", "hello world")
	require.NoError(t, err)
	assert.Equal(t, "report_a1b2c3d4_text.txt", name)

	content, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
}

func TestSaveImage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	f := NewFiles(nil)

	name, err := f.SaveImage(dir, "report", "a1b2c3d4", 3, 1, "JPEG", []byte{0xff, 0xd8})
	require.NoError(t, err)
	assert.Equal(t, "report_a1b2c3d4_p3_i1.jpeg", name)

	// Unknown extension falls back to png.
	name, err = f.SaveImage(dir, "report", "a1b2c3d4", 1, 0, "", []byte{0x89})
	require.NoError(t, err)
	assert.Equal(t, "report_a1b2c3d4_p1_i0.png", name)
}
