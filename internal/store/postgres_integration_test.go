//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.SweepStaleContainers(m))
}

func TestPostgres_Integration(t *testing.T) {
	mgr := testutil.StartPostgres(t)
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.Store.Driver = "postgres"
	cfg.Store.DSN = mgr.DSN()

	s, err := Open(ctx, cfg, nil, testutil.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	testStore(t, s)
}
