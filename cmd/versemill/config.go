package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/versemill/internal/api"
	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/svcctx"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the versemill configuration",
	Long: `Manage the versemill configuration.

The config file holds the book identity, the lexical tables and thresholds
of the heuristics, extraction settings and the store connection.

Examples:
  versemill config init       # Write defaults to ~/.versemill/config.yaml
  versemill config show       # Print the effective config
  versemill config validate   # Check the config and report errors`,
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write the default config to the home directory",
	Annotations: map[string]string{skipServices: ""},
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		path := h.ConfigPath()
		if cfgFile != "" {
			path = cfgFile
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return api.Output(svcctx.ConfigFrom(cmd.Context()))
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Validate the configuration against its schema and semantic rules:
patterns must compile, the verse marker needs exactly one capture group and
the diacritic table must not feed its own outputs back in.

Loading already validates, so reaching this command means the config is
valid; it is re-checked explicitly and the file in use is reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := config.Validate(svcctx.ConfigFrom(ctx)); err != nil {
			return err
		}
		path := svcctx.ServicesFrom(ctx).ConfigManager.ConfigFileUsed()
		if path == "" {
			path = "(defaults)"
		}
		return api.Output(map[string]any{"config": path, "valid": true})
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
