// Package extract pulls plain text out of bulletin PDFs via MuPDF.
package extract

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/escola-labs/bulletindex/internal/domain"
)

// Extractor reads a PDF and concatenates the extractable text of its pages.
type Extractor struct {
	logger *zap.Logger
}

// New creates a PDF text extractor.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns the document's text, pages joined by newline. Pages that
// yield no text are skipped; a page-level extraction error skips that page
// and continues. A file that cannot be opened, or that yields no text at
// all, reports ErrExtractionFailed — a recoverable condition: the caller
// skips the document and moves on with the batch.
func (e *Extractor) Extract(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %v: %w", path, err, domain.ErrExtractionFailed)
	}
	defer doc.Close()

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("Failed to extract page text",
				zap.String("path", path),
				zap.Int("page", i),
				zap.Error(err),
			)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("no extractable text in %s: %w", path, domain.ErrExtractionFailed)
	}

	return strings.Join(pages, "\n"), nil
}
