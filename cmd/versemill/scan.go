package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/versemill/internal/api"
	"github.com/jackzampolin/versemill/internal/extract"
	"github.com/jackzampolin/versemill/internal/scanner"
	"github.com/jackzampolin/versemill/internal/segment"
	"github.com/jackzampolin/versemill/internal/svcctx"
	"github.com/jackzampolin/versemill/internal/types"
)

var (
	scanBook      string
	scanFirstPage int
	scanLastPage  int
	scanDryRun    bool
	scanTrace     bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <file>",
	Short: "Segment a book into verse records",
	Long: `Extract the pages of a book, segment them into verse records and store
every record in the configured store.

The input is a PDF (read column by column with pdftotext) or a plain text
dump with pages separated by form feeds. Use "-" to read a dump from stdin.

Scanning is idempotent: records whose content did not change are counted
as unchanged and left untouched.

Examples:
  versemill scan slokamrtam.pdf --first-page 9
  versemill scan pages.txt --dry-run -o jsonl
  versemill scan slokamrtam.pdf --trace 2> trace.log`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := svcctx.LoggerFrom(ctx)

		cfg := *svcctx.ConfigFrom(ctx)
		if cmd.Flags().Changed("book") {
			cfg.Book.Acronym = scanBook
		}
		if cmd.Flags().Changed("first-page") {
			cfg.Extract.FirstPage = scanFirstPage
		}
		if cmd.Flags().Changed("last-page") {
			cfg.Extract.LastPage = scanLastPage
		}

		ex, err := extract.Open(args[0], cfg.Extract, logger)
		if err != nil {
			return err
		}
		pages, err := ex.Extract(ctx)
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", args[0], err)
		}
		logger.Info("extracted pages", "file", args[0], "pages", len(pages))

		opts := []scanner.Option{scanner.WithLogger(logger)}
		if scanTrace {
			opts = append(opts, scanner.WithTrace(printTrace))
		}
		p, err := scanner.NewPipeline(&cfg, opts...)
		if err != nil {
			return err
		}

		if scanDryRun {
			records, stats, err := p.Segment(pages)
			if err != nil {
				return err
			}
			if api.GetOutputFormat() == api.OutputFormatJSONL {
				return api.Output(records)
			}
			return api.Output(dryRunResult{Stats: stats, Records: records})
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		report, runErr := p.Run(ctx, pages, s)
		if report != nil {
			if err := api.Output(report); err != nil {
				return err
			}
		}
		if runErr != nil {
			if report != nil && report.Failed > 0 {
				return fmt.Errorf("%d records failed to store: %w", report.Failed, runErr)
			}
			return runErr
		}
		return nil
	},
}

type dryRunResult struct {
	Stats   scanner.Stats       `json:"stats" yaml:"stats"`
	Records []types.VerseRecord `json:"records" yaml:"records"`
}

func printTrace(canonicalID string, steps []segment.Step) {
	fmt.Fprintf(os.Stderr, "== %s\n", canonicalID)
	for _, s := range steps {
		fmt.Fprintf(os.Stderr, "  %-16s %-16s %-14s %s\n", s.Class, s.State, s.Buffer, s.Line)
	}
}

func init() {
	scanCmd.Flags().StringVar(&scanBook, "book", "", "book acronym prefixed to canonical ids (overrides book.acronym)")
	scanCmd.Flags().IntVar(&scanFirstPage, "first-page", 1, "first page to read, 1-based (overrides extract.first_page)")
	scanCmd.Flags().IntVar(&scanLastPage, "last-page", 0, "last page to read, 0 for the end (overrides extract.last_page)")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "print records instead of storing them")
	scanCmd.Flags().BoolVar(&scanTrace, "trace", false, "print every block's routing decisions to stderr")

	rootCmd.AddCommand(scanCmd)
}
