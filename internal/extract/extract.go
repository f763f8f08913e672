// Package extract turns source documents into ordered page lines for the
// scanner. PDFs are read column by column through poppler's pdftotext;
// plain text dumps are split into pages on form feeds.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/types"
)

// ErrUnsupported is returned by Open for inputs it cannot read.
var ErrUnsupported = errors.New("unsupported input")

// Extractor yields a document's pages in reading order.
type Extractor interface {
	Extract(ctx context.Context) ([]types.Page, error)
}

// PageRange selects pages to keep, 1-based and inclusive. Last of 0 means
// the end of the document.
type PageRange struct {
	First int
	Last  int
}

func (r PageRange) contains(n int) bool {
	if n < r.First {
		return false
	}
	return r.Last <= 0 || n <= r.Last
}

func rangeFrom(cfg config.ExtractConfig) PageRange {
	first := cfg.FirstPage
	if first < 1 {
		first = 1
	}
	return PageRange{First: first, Last: cfg.LastPage}
}

// Open picks an extractor for path by extension. "-" reads a text dump from
// stdin.
func Open(path string, cfg config.ExtractConfig, logger *slog.Logger) (Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "-" {
		return NewText(os.Stdin, rangeFrom(cfg)), nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPDF(path, cfg, logger), nil
	case ".txt", ".text":
		return NewTextFile(path, rangeFrom(cfg)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
}

// splitLines breaks page text into raw lines numbered with page.
// Indentation is kept; only line endings are removed.
func splitLines(text string, page int) []types.RawLine {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}

	parts := strings.Split(text, "\n")
	lines := make([]types.RawLine, 0, len(parts))
	for _, p := range parts {
		lines = append(lines, types.RawLine{Text: strings.TrimRight(p, "\r"), Page: page})
	}
	return lines
}
