package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/home"
	"github.com/jackzampolin/versemill/internal/pgdocker"
	"github.com/jackzampolin/versemill/internal/svcctx"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the PostgreSQL container",
	Long: `Manage the PostgreSQL container used by the postgres store.

The database runs in a Docker container with data persisted to
~/.versemill/postgres/. Point the store at it with:

  store:
    driver: postgres

Examples:
  versemill db start   # Start the container
  versemill db stop    # Stop the container (data preserved)
  versemill db status  # Check container status
  versemill db dsn     # Print the connection string`,
}

var dbStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the PostgreSQL container",
	Long: `Start the PostgreSQL container.

If the container doesn't exist, it will be created and started.
If it exists but is stopped, it will be started.
If it's already running, this is a no-op.

Data is persisted to ~/.versemill/postgres/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		h := svcctx.HomeFrom(ctx)
		if err := h.EnsurePostgresDataDir(); err != nil {
			return err
		}

		mgr, err := getDockerManager(h, svcctx.ConfigFrom(ctx))
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Starting PostgreSQL...")
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start PostgreSQL: %w", err)
		}

		fmt.Printf("PostgreSQL is running at %s\n", mgr.DSN())
		return nil
	},
}

var dbStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the PostgreSQL container",
	Long: `Stop the PostgreSQL container.

This stops the container but preserves data. Use 'versemill db start'
to restart it later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, err := getDockerManager(svcctx.HomeFrom(ctx), svcctx.ConfigFrom(ctx))
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Stopping PostgreSQL...")
		if err := mgr.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop PostgreSQL: %w", err)
		}

		fmt.Println("PostgreSQL stopped")
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show PostgreSQL container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, err := getDockerManager(svcctx.HomeFrom(ctx), svcctx.ConfigFrom(ctx))
		if err != nil {
			return err
		}
		defer mgr.Close()

		status, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		switch status {
		case pgdocker.StatusRunning:
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("Container: %s\n", mgr.ContainerName())

			if err := mgr.HealthCheck(ctx); err != nil {
				fmt.Printf("Health: unhealthy (%v)\n", err)
			} else {
				fmt.Println("Health: healthy")
			}
		case pgdocker.StatusStopped:
			fmt.Printf("Status: %s (use 'versemill db start' to start)\n", status)
		case pgdocker.StatusNotFound:
			fmt.Printf("Status: %s (use 'versemill db start' to create)\n", status)
		default:
			fmt.Printf("Status: %s\n", status)
		}

		return nil
	},
}

var logsTail string

var dbLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show PostgreSQL container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, err := getDockerManager(svcctx.HomeFrom(ctx), svcctx.ConfigFrom(ctx))
		if err != nil {
			return err
		}
		defer mgr.Close()

		logs, err := mgr.Logs(ctx, logsTail)
		if err != nil {
			return fmt.Errorf("failed to get logs: %w", err)
		}

		fmt.Print(logs)
		return nil
	},
}

var dbRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the PostgreSQL container",
	Long: `Remove the PostgreSQL container.

This stops and removes the container. Data in ~/.versemill/postgres/
is NOT deleted - only the container is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, err := getDockerManager(svcctx.HomeFrom(ctx), svcctx.ConfigFrom(ctx))
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Removing PostgreSQL container...")
		if err := mgr.Remove(ctx); err != nil {
			return fmt.Errorf("failed to remove container: %w", err)
		}

		fmt.Println("PostgreSQL container removed (data preserved)")
		return nil
	},
}

var dbWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for PostgreSQL to be ready",
	Long: `Wait for PostgreSQL to be ready to accept connections.

This is useful in scripts to ensure the database is fully started
before running 'versemill scan'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, err := getDockerManager(svcctx.HomeFrom(ctx), svcctx.ConfigFrom(ctx))
		if err != nil {
			return err
		}
		defer mgr.Close()

		timeout, _ := cmd.Flags().GetDuration("timeout")
		fmt.Printf("Waiting for PostgreSQL (timeout: %s)...\n", timeout)

		if err := mgr.WaitReady(ctx, timeout); err != nil {
			return fmt.Errorf("PostgreSQL not ready: %w", err)
		}

		fmt.Println("PostgreSQL is ready")
		return nil
	},
}

var dbDSNCmd = &cobra.Command{
	Use:   "dsn",
	Short: "Print the connection string of the container",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(svcctx.ConfigFrom(cmd.Context()).PostgresDSN())
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbStartCmd)
	dbCmd.AddCommand(dbStopCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbLogsCmd)
	dbCmd.AddCommand(dbRemoveCmd)
	dbCmd.AddCommand(dbWaitCmd)
	dbCmd.AddCommand(dbDSNCmd)

	dbLogsCmd.Flags().StringVar(&logsTail, "tail", "100", "Number of lines to show from the end")
	dbWaitCmd.Flags().Duration("timeout", 30*time.Second, "Timeout waiting for PostgreSQL")

	rootCmd.AddCommand(dbCmd)
}

// getDockerManager creates a DockerManager from the postgres config section.
func getDockerManager(h *home.Dir, cfg *config.Config) (*pgdocker.DockerManager, error) {
	return pgdocker.NewDockerManager(pgdocker.DockerConfig{
		ContainerName: cfg.Postgres.ContainerName,
		HomePath:      h.Path(),
		Image:         cfg.Postgres.Image,
		DataPath:      h.PostgresDataPath(),
		HostPort:      cfg.Postgres.Port,
		User:          cfg.Postgres.User,
		Password:      cfg.PostgresPassword(),
		Database:      cfg.Postgres.Database,
	})
}
