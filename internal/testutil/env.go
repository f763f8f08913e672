package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"testing"
	"time"

	"github.com/jackzampolin/versemill/internal/pgdocker"
)

// NewPostgresConfig returns a pgdocker configuration for a throwaway
// container: unique name, free host port, test labels and no DataPath, so
// data lives in an anonymous volume removed with the container.
func NewPostgresConfig(t *testing.T) pgdocker.DockerConfig {
	t.Helper()

	// Register Docker cleanup for this test
	_ = DockerClient(t)

	port, err := FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port for postgres: %v", err)
	}

	return pgdocker.DockerConfig{
		ContainerName: UniqueContainerName(t),
		HostPort:      port,
		User:          "versemill",
		Password:      "versemill",
		Database:      "versemill_test",
		Labels:        ContainerLabels(t),
	}
}

// StartPostgres starts a throwaway postgres container and waits until it
// accepts connections. The container is removed when the test ends.
func StartPostgres(t *testing.T) *pgdocker.DockerManager {
	t.Helper()

	mgr, err := pgdocker.NewDockerManager(NewPostgresConfig(t))
	if err != nil {
		t.Fatalf("failed to create docker manager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("failed to start postgres: %v", err)
	}
	return mgr
}

// SweepStaleContainers is the TestMain body of integration packages: it
// removes stale test containers, then runs the tests.
func SweepStaleContainers(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	n, err := CleanupAllTestContainers(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stale test container sweep failed: %v\n", err)
	} else if n > 0 {
		fmt.Fprintf(os.Stderr, "removed %d stale test container(s)\n", n)
	}
	return m.Run()
}

// Logger returns a debug logger for tests, quiet unless VERSEMILL_TEST_LOG is set.
func Logger() *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv("VERSEMILL_TEST_LOG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// FindFreePort finds an available TCP port and returns it as a string.
func FindFreePort() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer listener.Close()
	return fmt.Sprintf("%d", listener.Addr().(*net.TCPAddr).Port), nil
}
