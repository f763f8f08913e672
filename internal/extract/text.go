package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackzampolin/versemill/internal/types"
)

// Text reads a plain text dump where pages are separated by form feeds,
// as produced by pdftotext without a page range.
type Text struct {
	open  func() (io.ReadCloser, error)
	pages PageRange
}

// NewText reads from r. r is consumed by the first Extract.
func NewText(r io.Reader, pages PageRange) *Text {
	return &Text{
		open:  func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
		pages: pages,
	}
}

// NewTextFile reads the file at path on each Extract.
func NewTextFile(path string, pages PageRange) *Text {
	return &Text{
		open:  func() (io.ReadCloser, error) { return os.Open(path) },
		pages: pages,
	}
}

func (t *Text) Extract(ctx context.Context) ([]types.Page, error) {
	rc, err := t.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open text: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read text: %w", err)
	}

	chunks := strings.Split(string(data), "\f")
	// pdftotext ends every page with a form feed
	if len(chunks) > 1 && strings.TrimSpace(chunks[len(chunks)-1]) == "" {
		chunks = chunks[:len(chunks)-1]
	}

	var pages []types.Page
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := i + 1
		if !t.pages.contains(n) {
			continue
		}
		pages = append(pages, types.Page{Number: n, Lines: splitLines(chunk, n)})
	}
	return pages, nil
}
