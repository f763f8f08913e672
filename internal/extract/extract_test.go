package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/versemill/internal/config"
)

func lineTexts(t *testing.T, e Extractor) map[int][]string {
	t.Helper()
	pages, err := e.Extract(context.Background())
	require.NoError(t, err)

	out := map[int][]string{}
	for _, p := range pages {
		for _, l := range p.Lines {
			require.Equal(t, p.Number, l.Page)
			out[p.Number] = append(out[p.Number], l.Text)
		}
	}
	return out
}

func TestText(t *testing.T) {
	dump := "Title page\n\fPreface\r\nmore\f1.1\n   anyābhilāṣitā\n\fI offer\n\f"

	t.Run("all pages", func(t *testing.T) {
		got := lineTexts(t, NewText(strings.NewReader(dump), PageRange{First: 1}))
		assert.Equal(t, map[int][]string{
			1: {"Title page"},
			2: {"Preface", "more"},
			3: {"1.1", "   anyābhilāṣitā"},
			4: {"I offer"},
		}, got)
	})

	t.Run("page range", func(t *testing.T) {
		pages, err := NewText(strings.NewReader(dump), PageRange{First: 3, Last: 3}).Extract(context.Background())
		require.NoError(t, err)
		require.Len(t, pages, 1)
		assert.Equal(t, 3, pages[0].Number)
	})

	t.Run("no form feeds is one page", func(t *testing.T) {
		got := lineTexts(t, NewText(strings.NewReader("a\nb\n"), PageRange{First: 1}))
		assert.Equal(t, map[int][]string{1: {"a", "b"}}, got)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewText(strings.NewReader(dump), PageRange{First: 1}).Extract(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "book.txt")
	require.NoError(t, os.WriteFile(txt, []byte("p1\fp2\f"), 0o644))
	pdf := filepath.Join(dir, "book.PDF")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644))
	doc := filepath.Join(dir, "book.docx")
	require.NoError(t, os.WriteFile(doc, []byte("x"), 0o644))

	cfg := config.DefaultConfig().Extract

	e, err := Open(txt, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, map[int][]string{1: {"p1"}, 2: {"p2"}}, lineTexts(t, e))

	e, err = Open(pdf, cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &PDF{}, e)

	e, err = Open("-", cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &Text{}, e)

	_, err = Open(doc, cfg, nil)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Open(filepath.Join(dir, "missing.pdf"), cfg, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestColumnBoxes(t *testing.T) {
	left, right := ColumnBoxes(Dim{Width: 612, Height: 792}, 0.06, 0.94)

	assert.Equal(t, Box{X: 0, Y: 48, W: 306, H: 696}, left)
	assert.Equal(t, Box{X: 306, Y: 48, W: 306, H: 696}, right)

	// Odd widths leave no gap between the columns.
	left, right = ColumnBoxes(Dim{Width: 595.3, Height: 841.9}, 0, 1)
	assert.Equal(t, left.W, right.X)
	assert.Equal(t, 595, right.X+right.W)
	assert.Equal(t, 842, left.H)
}

// fakePDF returns a PDF extractor whose pdftotext output names the page and
// column it was asked for.
func fakePDF(t *testing.T, pages int, cfg config.ExtractConfig) (*PDF, *int32) {
	t.Helper()
	var calls int32
	p := NewPDF("book.pdf", cfg, nil)
	p.pageDims = func(string) ([]Dim, error) {
		dims := make([]Dim, pages)
		for i := range dims {
			dims[i] = Dim{Width: 600, Height: 800}
		}
		return dims, nil
	}
	p.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		page := args[1]
		col := "left"
		if args[5] != "0" {
			col = "right"
		}
		return []byte(col + " " + page + "\nline\n\f"), nil
	}
	return p, &calls
}

func TestPDF_Extract(t *testing.T) {
	cfg := config.DefaultConfig().Extract
	cfg.FirstPage = 2
	cfg.LastPage = 5
	cfg.Workers = 3

	p, calls := fakePDF(t, 8, cfg)
	pages, err := p.Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, pages, 4)
	for i, page := range pages {
		n := i + 2
		assert.Equal(t, n, page.Number, "pages must stay in order")
		require.Len(t, page.Lines, 4)
		assert.Equal(t, "left "+itoa(n), page.Lines[0].Text)
		assert.Equal(t, "right "+itoa(n), page.Lines[2].Text)
	}
	assert.Equal(t, int32(8), *calls)
}

func TestPDF_Args(t *testing.T) {
	cfg := config.DefaultConfig().Extract
	cfg.Layout = true
	p := NewPDF("book.pdf", cfg, nil)

	args := p.args(7, Box{X: 300, Y: 48, W: 300, H: 704})
	assert.Equal(t, []string{
		"-f", "7", "-l", "7",
		"-x", "300", "-y", "48", "-W", "300", "-H", "704",
		"-enc", "UTF-8", "-layout", "book.pdf", "-",
	}, args)
}

func TestPDF_ExtractError(t *testing.T) {
	cfg := config.DefaultConfig().Extract
	p, _ := fakePDF(t, 6, cfg)
	p.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if args[1] == "4" {
			return nil, errors.New("pdftotext failed: exit status 1")
		}
		return []byte("ok\n"), nil
	}

	_, err := p.Extract(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 4")
}

func TestPDF_DimsError(t *testing.T) {
	p := NewPDF("book.pdf", config.DefaultConfig().Extract, nil)
	p.pageDims = func(string) ([]Dim, error) { return nil, errors.New("not a pdf") }

	_, err := p.Extract(context.Background())
	assert.EqualError(t, err, "not a pdf")
}

func itoa(n int) string {
	return string(rune('0' + n))
}
