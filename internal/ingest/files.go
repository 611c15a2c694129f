package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jalade/pdf-insight/constants"
)

// Files handles the filesystem side of processing: scanning the pending
// folder, persisting derived artifacts, and moving sources once done.
type Files struct {
	logger *slog.Logger
}

func NewFiles(logger *slog.Logger) *Files {
	if logger == nil {
		logger = slog.Default()
	}
	return &Files{logger: logger}
}

// ListPDFs returns the full paths of all PDF files directly inside dir,
// sorted by name. A missing directory yields an empty slice, not an error.
func (f *Files) ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Warn("pending directory does not exist", "dir", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !constants.IsPDF(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	f.logger.Info("scanned pending directory", "dir", dir, "pdf_files", len(paths))
	return paths, nil
}

// MoveFile moves src into destDir, creating the directory if needed. When a
// file of the same name already exists at the destination the move is skipped
// and the existing path returned.
func (f *Files) MoveFile(src, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", destDir, err)
	}
	dest := filepath.Join(destDir, filepath.Base(src))
	if _, err := os.Stat(dest); err == nil {
		f.logger.Warn("file already exists at destination, skipping move", "dest", dest)
		return dest, nil
	}
	if err := os.Rename(src, dest); err != nil {
		// Rename fails across filesystems; fall back to copy-and-remove.
		if err := copyFile(src, dest); err != nil {
			return "", fmt.Errorf("move %s: %w", src, err)
		}
		if err := os.Remove(src); err != nil {
			return "", fmt.Errorf("remove source %s: %w", src, err)
		}
	}
	f.logger.Info("moved file", "src", src, "dest", dest)
	return dest, nil
}

// SaveText writes the extracted full text under dir, named from the source
// stem and the per-run token. Returns the bare filename.
func (f *Files) SaveText(dir, stem, hexID, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}
	name := fmt.Sprintf("%s_%s_%s.txt", stem, hexID, constants.TextFileSuffix)
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write text file %s: %w", name, err)
	}
	f.logger.Info("saved extracted text", "filename", name, "bytes", len(content))
	return name, nil
}

// SaveImage writes one extracted image under dir, named from the source stem,
// the per-run token, and the page/index pair. Returns the bare filename.
func (f *Files) SaveImage(dir, stem, hexID string, page, index int, extension string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}
	ext := constants.NormalizeExt(extension)
	if ext == "" {
		ext = "png"
	}
	name := fmt.Sprintf("%s_%s_p%d_i%d.%s", stem, hexID, page, index, ext)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image file %s: %w", name, err)
	}
	f.logger.Debug("saved extracted image", "filename", name, "bytes", len(data))
	return name, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
