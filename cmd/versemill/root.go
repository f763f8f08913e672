package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/versemill/internal/api"
	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/home"
	"github.com/jackzampolin/versemill/internal/store"
	"github.com/jackzampolin/versemill/internal/svcctx"
	"github.com/jackzampolin/versemill/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
	logFormat    string
)

// skipServices marks commands that run without a loaded config.
const skipServices = "skip-services"

var rootCmd = &cobra.Command{
	Use:   "versemill",
	Short: "Segment OCR'd verse books into structured records",
	Long: `Versemill turns the raw text of a two-column devotional verse book into
one structured record per verse.

The pipeline includes:
  - Page text extraction (pdftotext per column, or a plain text dump)
  - Repair of legacy diacritic encodings and OCR glue
  - Line classification (root, reference, word-for-word, translation)
  - Verse block segmentation with chapter topic tagging
  - Idempotent storage in SQLite or PostgreSQL`,
	Version:            version.GitRelease,
	SilenceUsage:       true,
	PersistentPreRunE:  setupServices,
	PersistentPostRunE: closeServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.versemill/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "versemill home directory (default: ~/.versemill)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml, json or jsonl",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logFormat, "log-format", "", "log format: text or json (overrides config)",
	)

	rootCmd.AddCommand(versionCmd)
}

func getHome() (*home.Dir, error) {
	return home.New(homeDir)
}

// loadConfig prefers --config, then the home config, then viper's search path.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	path := cfgFile
	if path == "" && h.ConfigExists() {
		path = h.ConfigPath()
	}
	mgr, err := config.NewManager(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return mgr, nil
}

func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, format := cfg.Level, cfg.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want text or json)", format)
	}
}

func setupServices(cmd *cobra.Command, args []string) error {
	api.SetOutputFormat(outputFormat)
	if _, ok := cmd.Annotations[skipServices]; ok {
		return nil
	}

	h, err := getHome()
	if err != nil {
		return err
	}
	mgr, err := loadConfig(h)
	if err != nil {
		return err
	}
	logger, err := newLogger(mgr.Get().Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	mgr.SetLogger(logger)
	if used := mgr.ConfigFileUsed(); used != "" {
		logger.Debug("loaded config", "path", used)
	}

	cmd.SetContext(svcctx.WithServices(cmd.Context(), &svcctx.Services{
		ConfigManager: mgr,
		Logger:        logger,
		Home:          h,
	}))
	return nil
}

func closeServices(cmd *cobra.Command, args []string) error {
	svcs := svcctx.ServicesFrom(cmd.Context())
	if svcs == nil || svcs.Store == nil {
		return nil
	}
	return svcs.Store.Close()
}

// openStore opens the configured store once per command and caches it in
// the command's services.
func openStore(cmd *cobra.Command) (store.Store, error) {
	ctx := cmd.Context()
	svcs := svcctx.ServicesFrom(ctx)
	if svcs == nil {
		return nil, fmt.Errorf("services not initialized")
	}
	if svcs.Store != nil {
		return svcs.Store, nil
	}

	s, err := store.Open(ctx, svcctx.ConfigFrom(ctx), svcs.Home, svcs.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	svcs.Store = s
	return s, nil
}
