package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/home"
	"github.com/jackzampolin/versemill/internal/types"
)

func record(ref, topic string, page int) types.VerseRecord {
	return types.VerseRecord{
		CanonicalID: types.CanonicalID("SLK", ref),
		Book:        "SLK",
		VerseRef:    ref,
		Nums:        types.ParseVerseNums(ref),
		Root:        "vande gurun",
		Body:        "I offer my obeisances.",
		Topic:       topic,
		Page:        page,
		RunID:       "run-1",
	}
}

// testStore exercises the behaviour every backend shares.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("upsert is idempotent", func(t *testing.T) {
		rec := record("1.1", "Introduction", 3)

		changed, err := s.Upsert(ctx, rec)
		require.NoError(t, err)
		assert.True(t, changed)

		rec.RunID = "run-2"
		changed, err = s.Upsert(ctx, rec)
		require.NoError(t, err)
		assert.False(t, changed, "same content under a new run should not rewrite")

		got, err := s.Get(ctx, "SLK_1.1")
		require.NoError(t, err)
		assert.Equal(t, "run-1", got.RunID)
	})

	t.Run("changed content is rewritten", func(t *testing.T) {
		rec := record("1.1", "Introduction", 3)
		rec.Body = "I offer my respectful obeisances."
		rec.RunID = "run-3"

		changed, err := s.Upsert(ctx, rec)
		require.NoError(t, err)
		assert.True(t, changed)

		got, err := s.Get(ctx, "SLK_1.1")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "SLK_99.1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects empty id", func(t *testing.T) {
		_, err := s.Upsert(ctx, types.VerseRecord{Body: "x"})
		assert.Error(t, err)
	})

	t.Run("list orders by verse number", func(t *testing.T) {
		for _, rec := range []types.VerseRecord{
			record("1.10", "Introduction", 5),
			record("1.2", "Introduction", 3),
			record("2.1", "SAMBANDHA", 8),
			record("2.1.3", "SAMBANDHA", 9),
		} {
			_, err := s.Upsert(ctx, rec)
			require.NoError(t, err)
		}

		recs, err := s.List(ctx, ListOptions{Book: "SLK"})
		require.NoError(t, err)

		var ids []string
		for _, rec := range recs {
			ids = append(ids, rec.CanonicalID)
		}
		assert.Equal(t, []string{"SLK_1.1", "SLK_1.2", "SLK_1.10", "SLK_2.1", "SLK_2.1.3"}, ids)
	})

	t.Run("list filters and pages", func(t *testing.T) {
		recs, err := s.List(ctx, ListOptions{Topic: "SAMBANDHA"})
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "SLK_2.1", recs[0].CanonicalID)

		recs, err = s.List(ctx, ListOptions{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "SLK_1.2", recs[0].CanonicalID)
		assert.Equal(t, "SLK_1.10", recs[1].CanonicalID)

		recs, err = s.List(ctx, ListOptions{Offset: 4})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "SLK_2.1.3", recs[0].CanonicalID)

		recs, err = s.List(ctx, ListOptions{Book: "BRS"})
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := s.Stats(ctx, "SLK")
		require.NoError(t, err)

		assert.Equal(t, 5, stats.Records)
		assert.Equal(t, []TopicCount{
			{Topic: "Introduction", Count: 3},
			{Topic: "SAMBANDHA", Count: 2},
		}, stats.Topics)
	})
}

func TestMemory(t *testing.T) {
	testStore(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	testStore(t, s)
}

func TestSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, record("4.2", "PRAYOJANA", 40))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Migrations are already applied; reopening must not fail or lose data.
	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Get(ctx, "SLK_4.2")
	require.NoError(t, err)
	assert.Equal(t, [3]int{4, 2, 0}, got.Nums)
	assert.Equal(t, 40, got.Page)
}

func TestContentHash(t *testing.T) {
	a := record("1.1", "Introduction", 3)
	b := a
	b.RunID = "run-other"
	assert.Equal(t, ContentHash(a), ContentHash(b), "run id must not affect the hash")

	b.Commentary = "note"
	assert.NotEqual(t, ContentHash(a), ContentHash(b))

	// Field boundaries are delimited.
	c, d := a, a
	c.Root, c.Reference = "ab", "c"
	d.Root, d.Reference = "a", "bc"
	assert.NotEqual(t, ContentHash(c), ContentHash(d))

	assert.Len(t, ContentHash(a), 64)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("sqlite defaults to home database", func(t *testing.T) {
		dir, err := home.New(t.TempDir())
		require.NoError(t, err)

		cfg := config.DefaultConfig()
		s, err := Open(ctx, cfg, dir, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })

		_, err = s.Upsert(ctx, record("1.1", "Introduction", 1))
		require.NoError(t, err)
		assert.FileExists(t, dir.DatabasePath())
	})

	t.Run("memory", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Store.Driver = "memory"
		cfg.Store.RetryAttempts = 1

		s, err := Open(ctx, cfg, nil, nil)
		require.NoError(t, err)
		assert.IsType(t, &Memory{}, s)
	})

	t.Run("wraps with retry", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Store.Driver = "memory"

		s, err := Open(ctx, cfg, nil, nil)
		require.NoError(t, err)
		assert.IsType(t, &retrying{}, s)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Store.Driver = "mongo"

		_, err := Open(ctx, cfg, nil, nil)
		assert.Error(t, err)
	})

	t.Run("sqlite without home or dsn", func(t *testing.T) {
		_, err := Open(ctx, config.DefaultConfig(), nil, nil)
		assert.Error(t, err)
	})
}
