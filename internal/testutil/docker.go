package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"

	"github.com/jackzampolin/versemill/internal/pgdocker"
)

const (
	// CleanupLabel marks postgres containers started by tests. Its value is
	// the test name.
	CleanupLabel = "versemill-test"

	// StaleAfter is how old a test container must be before a package-level
	// sweep removes it. Younger ones may belong to a package running in parallel.
	StaleAfter = 15 * time.Minute
)

// TestingT is a subset of testing.T used for Docker setup
type TestingT interface {
	Name() string
	Cleanup(func())
	Logf(format string, args ...any)
	Helper()
}

// DockerClient creates a Docker client and registers removal of the
// postgres containers this test starts.
func DockerClient(t TestingT) *client.Client {
	t.Helper()

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		panic(fmt.Sprintf("failed to create docker client: %v", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		panic(fmt.Sprintf("docker is not running: %v", err))
	}

	t.Cleanup(func() {
		defer cli.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := removePostgres(ctx, cli, testFilters(t.Name()), 0)
		if err != nil {
			t.Logf("Failed to clean up postgres containers: %v", err)
			return
		}
		if n > 0 {
			t.Logf("Removed %d postgres test container(s)", n)
		}
	})

	return cli
}

// UniqueContainerName generates a unique container name for a test.
// Format: versemill-postgres-test-<testname>-<random>
func UniqueContainerName(t TestingT) string {
	t.Helper()
	return fmt.Sprintf("%stest-%s-%s", pgdocker.ContainerNamePrefix, sanitizeName(t.Name()), randString(4))
}

// ContainerLabels returns the labels a test passes to pgdocker. pgdocker adds
// its own label on top, and cleanup requires both.
func ContainerLabels(t TestingT) map[string]string {
	return map[string]string{
		CleanupLabel: t.Name(),
	}
}

// testFilters selects postgres containers started by tests, by one test
// when testName is set.
func testFilters(testName string) filters.Args {
	args := filters.NewArgs()
	args.Add("label", pgdocker.Label+"=true")
	if testName == "" {
		args.Add("label", CleanupLabel)
	} else {
		args.Add("label", CleanupLabel+"="+testName)
	}
	return args
}

// removePostgres force-removes matching containers created more than
// olderThan ago, with their anonymous data volumes.
func removePostgres(ctx context.Context, cli *client.Client, args filters.Args, olderThan time.Duration) (int, error) {
	containers, err := cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return 0, fmt.Errorf("failed to list containers: %w", err)
	}

	cutoff := time.Now().Add(-olderThan).Unix()
	removed := 0
	for _, c := range containers {
		if olderThan > 0 && c.Created > cutoff {
			continue
		}
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{
			Force:         true,
			RemoveVolumes: true,
		}); err != nil {
			return removed, fmt.Errorf("failed to remove container %s: %w", strings.Join(c.Names, ","), err)
		}
		removed++
	}
	return removed, nil
}

// CleanupAllTestContainers removes postgres test containers left behind by
// interrupted runs. Integration packages call it from TestMain; containers
// younger than StaleAfter are kept.
func CleanupAllTestContainers(ctx context.Context) (int, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return 0, fmt.Errorf("failed to create docker client: %w", err)
	}
	defer cli.Close()

	return removePostgres(ctx, cli, testFilters(""), StaleAfter)
}

// randString generates a random hex string of n bytes
func randString(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// sanitizeName lowercases a test name into a container name component.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '/' || r == '_' || r == '-':
			b.WriteByte('-')
		}
		if b.Len() >= 30 {
			break
		}
	}
	return b.String()
}
