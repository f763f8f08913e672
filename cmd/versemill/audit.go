package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/versemill/internal/api"
	"github.com/jackzampolin/versemill/internal/audit"
	"github.com/jackzampolin/versemill/internal/store"
	"github.com/jackzampolin/versemill/internal/svcctx"
)

var (
	auditSample int
	auditChecks []string
	auditStrict bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report anomalies in stored records",
	Long: `Run diagnostic checks over the stored records of a book.

Checks:
  missing_root          verses without root text
  missing_body          verses with neither translation nor reference
  dirty_encoding        legacy font characters left in root text
  merged_reference      a citation glued onto root text
  leaked_title          a section title left at the end of a translation
  word_for_word_sample  a sample of glosses for eyeballing

With --strict the command fails when any non-sample check finds records.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := svcctx.ConfigFrom(ctx)

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		book := listBook
		if book == "" {
			book = cfg.Book.Acronym
		}
		recs, err := s.List(ctx, store.ListOptions{Book: book})
		if err != nil {
			return err
		}

		a := audit.New(cfg.Tables, audit.WithSample(auditSample), audit.Only(auditChecks...))
		report := a.Run(book, recs)
		if err := api.Output(report); err != nil {
			return err
		}
		if auditStrict && report.Problems() > 0 {
			return fmt.Errorf("audit found %d problems", report.Problems())
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVar(&listBook, "book", "", "book acronym (default: book.acronym)")
	auditCmd.Flags().IntVar(&auditSample, "sample", 20, "findings listed per check")
	auditCmd.Flags().StringSliceVar(&auditChecks, "check", nil, "run only these checks (repeatable)")
	auditCmd.Flags().BoolVar(&auditStrict, "strict", false, "exit non-zero when problems are found")

	rootCmd.AddCommand(auditCmd)
}
