package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/versemill/internal/api"
	"github.com/jackzampolin/versemill/internal/classify"
	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/svcctx"
	"github.com/jackzampolin/versemill/internal/textnorm"
)

var classifyWatch bool

var classifyCmd = &cobra.Command{
	Use:   "classify [line...]",
	Short: "Show how lines are normalized and classified",
	Long: `Print the normalized form, noise verdict, class and heuristic signals of
each line. Lines come from the arguments, or from stdin when none are given.

With --watch, stdin is processed line by line and the heuristics are rebuilt
whenever the config file changes, so tables and thresholds can be tuned
against a live sample.

Examples:
  versemill classify "jñāna — knowledge; karma — action"
  pbpaste | versemill classify -o jsonl
  tail -f sample.txt | versemill classify --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := svcctx.LoggerFrom(ctx)

		insp := &lineInspector{}
		if err := insp.build(svcctx.ConfigFrom(ctx)); err != nil {
			return err
		}

		if classifyWatch {
			svcs := svcctx.ServicesFrom(ctx)
			if svcs.ConfigManager.ConfigFileUsed() == "" {
				logger.Warn("no config file loaded, changes will not be picked up")
			}
			svcs.ConfigManager.OnChange(func(cfg *config.Config) {
				if err := insp.build(cfg); err != nil {
					logger.Warn("ignoring config change", "error", err)
					return
				}
				logger.Info("reloaded heuristics")
			})
			svcs.ConfigManager.WatchConfig()
			return insp.stream(os.Stdin)
		}

		lines := args
		if len(lines) == 0 {
			var err error
			if lines, err = readLines(os.Stdin); err != nil {
				return err
			}
		}
		results := make([]lineResult, 0, len(lines))
		for _, line := range lines {
			results = append(results, insp.inspect(line))
		}
		return api.Output(results)
	},
}

type lineResult struct {
	Raw            string                   `json:"raw" yaml:"raw"`
	Normalized     string                   `json:"normalized" yaml:"normalized"`
	Noise          bool                     `json:"noise" yaml:"noise"`
	Classification *classify.Classification `json:"classification,omitempty" yaml:"classification,omitempty"`
}

// lineInspector holds the heuristics built from the current config.
type lineInspector struct {
	mu   sync.RWMutex
	norm *textnorm.Normalizer
	cls  *classify.Classifier
}

func (i *lineInspector) build(cfg *config.Config) error {
	norm, err := textnorm.New(cfg.Tables, cfg.Thresholds)
	if err != nil {
		return fmt.Errorf("failed to create normalizer: %w", err)
	}
	cls, err := classify.New(classify.Config{
		Tables:     cfg.Tables,
		Thresholds: cfg.Thresholds,
		Patterns:   cfg.Patterns,
	})
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}

	i.mu.Lock()
	i.norm, i.cls = norm, cls
	i.mu.Unlock()
	return nil
}

func (i *lineInspector) inspect(raw string) lineResult {
	i.mu.RLock()
	norm, cls := i.norm, i.cls
	i.mu.RUnlock()

	// Noise is judged on the raw line, as the scanner does.
	res := lineResult{Raw: raw, Normalized: norm.Normalize(raw)}
	if norm.IsNoise(strings.TrimSpace(raw)) {
		res.Noise = true
		return res
	}
	c := cls.Classify(res.Normalized, raw)
	res.Classification = &c
	return res
}

func (i *lineInspector) stream(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := api.Output(i.inspect(sc.Text())); err != nil {
			return err
		}
	}
	return sc.Err()
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}
	return lines, nil
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyWatch, "watch", false, "stream stdin and reload heuristics on config changes")

	rootCmd.AddCommand(classifyCmd)
}
