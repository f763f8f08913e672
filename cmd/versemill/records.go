package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/versemill/internal/api"
	"github.com/jackzampolin/versemill/internal/store"
	"github.com/jackzampolin/versemill/internal/svcctx"
)

var (
	listBook   string
	listTopic  string
	listLimit  int
	listOffset int

	exportFormat string
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Read back stored verse records",
	Long: `Read back verse records from the configured store.

Examples:
  versemill records list --topic SAMBANDHA
  versemill records show SLK_1.1
  versemill records stats
  versemill records export --format json`,
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records in verse order",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		book := listBook
		if book == "" {
			book = svcctx.ConfigFrom(cmd.Context()).Book.Acronym
		}
		recs, err := s.List(cmd.Context(), store.ListOptions{
			Book:   book,
			Topic:  listTopic,
			Limit:  listLimit,
			Offset: listOffset,
		})
		if err != nil {
			return err
		}
		return api.Output(recs)
	},
}

var recordsShowCmd = &cobra.Command{
	Use:   "show <canonical-id>",
	Short: "Show a single record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		rec, err := s.Get(cmd.Context(), args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no record %s", args[0])
		}
		if err != nil {
			return err
		}
		return api.Output(rec)
	},
}

var recordsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count records and topics of a book",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		book := listBook
		if book == "" {
			book = svcctx.ConfigFrom(cmd.Context()).Book.Acronym
		}
		stats, err := s.Stats(cmd.Context(), book)
		if err != nil {
			return err
		}
		return api.Output(stats)
	},
}

var recordsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every record of a book to the home exports directory",
	Long: `Write every record of a book to {home}/exports/<book>.<format>.

The file is overwritten on each export.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := api.ParseOutputFormat(exportFormat)
		if err != nil {
			return err
		}
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		book := listBook
		if book == "" {
			book = svcctx.ConfigFrom(ctx).Book.Acronym
		}
		recs, err := s.List(ctx, store.ListOptions{Book: book})
		if err != nil {
			return err
		}

		h := svcctx.HomeFrom(ctx)
		if err := h.EnsureExists(); err != nil {
			return err
		}
		path := h.ExportPath(book, string(format))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		if err := api.OutputTo(f, format, recs); err != nil {
			f.Close()
			return fmt.Errorf("failed to write export: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		svcctx.LoggerFrom(ctx).Info("exported records", "book", book, "records", len(recs), "path", path)
		if !api.IsStructuredOutput() {
			fmt.Printf("Exported %d records to %s\n", len(recs), path)
		}
		return nil
	},
}

func init() {
	recordsCmd.PersistentFlags().StringVar(&listBook, "book", "", "book acronym (default: book.acronym)")

	recordsListCmd.Flags().StringVar(&listTopic, "topic", "", "only records tagged with this topic")
	recordsListCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum records to list, 0 for all")
	recordsListCmd.Flags().IntVar(&listOffset, "offset", 0, "records to skip")

	recordsExportCmd.Flags().StringVar(&exportFormat, "format", "json", "export format: yaml, json or jsonl")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(recordsStatsCmd)
	recordsCmd.AddCommand(recordsExportCmd)
	rootCmd.AddCommand(recordsCmd)
}
