package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/types"
)

// Box is a crop rectangle in PDF points, origin top-left.
type Box struct {
	X, Y, W, H int
}

// Dim is a page size in PDF points.
type Dim struct {
	Width, Height float64
}

// ColumnBoxes splits a page into left and right halves, cropped to the
// vertical band between marginTop and marginBottom (fractions of height).
func ColumnBoxes(d Dim, marginTop, marginBottom float64) (left, right Box) {
	top := int(math.Round(d.Height * marginTop))
	bottom := int(math.Round(d.Height * marginBottom))
	mid := int(math.Round(d.Width / 2))
	width := int(math.Round(d.Width))

	left = Box{X: 0, Y: top, W: mid, H: bottom - top}
	right = Box{X: mid, Y: top, W: width - mid, H: bottom - top}
	return left, right
}

// runner runs an external command and returns its stdout.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w (output: %s)", name, err, stderr.String())
	}
	return out, nil
}

// PDF extracts a two-column PDF page by page: the left column fully, then
// the right column.
type PDF struct {
	path         string
	pages        PageRange
	marginTop    float64
	marginBottom float64
	workers      int
	pdftotext    string
	layout       bool
	logger       *slog.Logger

	run      runner
	pageDims func(path string) ([]Dim, error)
}

// NewPDF creates a PDF extractor for path.
func NewPDF(path string, cfg config.ExtractConfig, logger *slog.Logger) *PDF {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	bin := cfg.Pdftotext
	if bin == "" {
		bin = "pdftotext"
	}
	return &PDF{
		path:         path,
		pages:        rangeFrom(cfg),
		marginTop:    cfg.MarginTop,
		marginBottom: cfg.MarginBottom,
		workers:      workers,
		pdftotext:    bin,
		layout:       cfg.Layout,
		logger:       logger,
		run:          execRunner,
		pageDims:     readPageDims,
	}
}

// readPageDims returns every page's size using pdfcpu.
func readPageDims(path string) ([]Dim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	dims, err := api.PageDims(f, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read page sizes: %w", err)
	}

	out := make([]Dim, len(dims))
	for i, d := range dims {
		out[i] = Dim{Width: d.Width, Height: d.Height}
	}
	return out, nil
}

// Extract reads the selected pages with up to workers pdftotext processes
// and returns them in page order.
func (p *PDF) Extract(ctx context.Context) ([]types.Page, error) {
	dims, err := p.pageDims(p.path)
	if err != nil {
		return nil, err
	}

	var wanted []int
	for n := 1; n <= len(dims); n++ {
		if p.pages.contains(n) {
			wanted = append(wanted, n)
		}
	}
	p.logger.Info("extracting pdf", "path", p.path, "pages", len(dims), "selected", len(wanted), "workers", p.workers)

	pages := make([]types.Page, len(wanted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, n := range wanted {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lines, err := p.extractPage(gctx, n, dims[n-1])
			if err != nil {
				return fmt.Errorf("page %d: %w", n, err)
			}
			pages[i] = types.Page{Number: n, Lines: lines}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (p *PDF) extractPage(ctx context.Context, n int, d Dim) ([]types.RawLine, error) {
	left, right := ColumnBoxes(d, p.marginTop, p.marginBottom)

	var lines []types.RawLine
	for _, box := range []Box{left, right} {
		out, err := p.run(ctx, p.pdftotext, p.args(n, box)...)
		if err != nil {
			return nil, err
		}
		lines = append(lines, splitLines(trimFormFeed(string(out)), n)...)
	}
	return lines, nil
}

func (p *PDF) args(n int, box Box) []string {
	page := strconv.Itoa(n)
	args := []string{
		"-f", page, "-l", page,
		"-x", strconv.Itoa(box.X), "-y", strconv.Itoa(box.Y),
		"-W", strconv.Itoa(box.W), "-H", strconv.Itoa(box.H),
		"-enc", "UTF-8",
	}
	if p.layout {
		args = append(args, "-layout")
	}
	return append(args, p.path, "-")
}

func trimFormFeed(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\f' || s[len(s)-1] == '\n') {
		s = s[:len(s)-1]
	}
	return s
}
