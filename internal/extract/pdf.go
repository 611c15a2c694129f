package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jalade/pdf-insight/internal/entity"
)

// ImageBlob is one embedded image pulled out of a document, tagged with its
// source page (1-based) and its index within that page (0-based).
type ImageBlob struct {
	Data       []byte
	PageNumber int
	PageIndex  int
	Extension  string
}

// Result is the complete extraction output for one PDF: descriptive fields
// and counters, the concatenated page text, and the embedded images.
type Result struct {
	Metadata entity.Metadata
	Text     string
	Images   []ImageBlob
}

// Extractor reads PDFs with go-fitz (metadata, pages, text) and pdfcpu
// (embedded images, attachments).
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract opens the PDF at path and pulls out everything the catalog records.
// Per-page text failures are logged and skipped; a file that cannot be opened
// at all is an error.
func (e *Extractor) Extract(ctx context.Context, path string) (*Result, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	meta := doc.Metadata()
	numPages := doc.NumPage()

	var (
		pageTexts  []string
		totalWords int
	)
	for i := 0; i < numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("failed to extract text from page", "path", path, "page", i+1, "err", err)
			continue
		}
		totalWords += len(strings.Fields(text))
		if strings.TrimSpace(text) != "" {
			pageTexts = append(pageTexts, text)
		}
	}

	images := e.extractImages(path)
	attachments := e.countAttachments(path)

	return &Result{
		Metadata: entity.Metadata{
			Title:            metaField(meta, "title"),
			Author:           metaField(meta, "author"),
			Subject:          metaField(meta, "subject"),
			Creator:          metaField(meta, "creator"),
			Producer:         metaField(meta, "producer"),
			CreationDate:     NormalizeDate(metaValue(meta, "creationDate")),
			ModificationDate: NormalizeDate(metaValue(meta, "modDate")),
			NumPages:         numPages,
			TotalWords:       totalWords,
			TotalImages:      len(images),
			TotalAttachments: attachments,
		},
		Text:   strings.Join(pageTexts, "\n"),
		Images: images,
	}, nil
}

// extractImages collects the document's embedded images. Extraction failures
// degrade to an empty slice; the rest of the pipeline still runs.
func (e *Extractor) extractImages(path string) []ImageBlob {
	f, err := os.Open(path)
	if err != nil {
		e.logger.Warn("failed to open pdf for image extraction", "path", path, "err", err)
		return nil
	}
	defer f.Close()

	var (
		images    []ImageBlob
		pageIndex = map[int]int{}
	)
	conf := model.NewDefaultConfiguration()
	digest := func(img model.Image, singleImgPerPage bool, maxPageDigits int) error {
		data, err := io.ReadAll(img)
		if err != nil {
			return fmt.Errorf("read image on page %d: %w", img.PageNr, err)
		}
		idx := pageIndex[img.PageNr]
		pageIndex[img.PageNr] = idx + 1
		images = append(images, ImageBlob{
			Data:       data,
			PageNumber: img.PageNr,
			PageIndex:  idx,
			Extension:  strings.ToLower(img.FileType),
		})
		return nil
	}
	if err := api.ExtractImages(f, nil, digest, conf); err != nil {
		e.logger.Warn("failed to extract images", "path", path, "err", err)
		return nil
	}
	return images
}

// countAttachments returns the number of embedded attachments, zero when the
// listing fails.
func (e *Extractor) countAttachments(path string) int {
	f, err := os.Open(path)
	if err != nil {
		e.logger.Warn("failed to open pdf for attachment listing", "path", path, "err", err)
		return 0
	}
	defer f.Close()

	list, err := api.Attachments(f, model.NewDefaultConfiguration())
	if err != nil {
		e.logger.Warn("failed to list attachments", "path", path, "err", err)
		return 0
	}
	return len(list)
}

// metaValue returns the cleaned metadata value for key. go-fitz hands back
// fixed-size C buffers, so values carry trailing NUL padding that must go
// before any emptiness or date check.
func metaValue(meta map[string]string, key string) string {
	return strings.TrimSpace(strings.TrimRight(meta[key], "\x00"))
}

func metaField(meta map[string]string, key string) *string {
	v := metaValue(meta, key)
	if v == "" {
		return nil
	}
	return &v
}
