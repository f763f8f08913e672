// Package store persists verse records. Every backend upserts by canonical
// id and only rewrites a row when its content hash changes, so a re-run over
// the same document leaves the store as it was.
package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/zeebo/blake3"

	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/home"
	"github.com/jackzampolin/versemill/internal/types"
)

// ErrNotFound is returned when no record has the requested canonical id.
var ErrNotFound = errors.New("record not found")

// Store is the record sink plus the read side used by the CLI and audit.
type Store interface {
	// Upsert inserts or replaces rec. changed is false when the stored row
	// already had identical content.
	Upsert(ctx context.Context, rec types.VerseRecord) (changed bool, err error)
	Get(ctx context.Context, canonicalID string) (types.VerseRecord, error)
	List(ctx context.Context, opts ListOptions) ([]types.VerseRecord, error)
	Stats(ctx context.Context, book string) (Stats, error)
	Close() error
}

// ListOptions filters List. Zero values mean no filter.
type ListOptions struct {
	Book   string
	Topic  string
	Limit  int
	Offset int
}

// TopicCount is the number of records filed under one topic.
type TopicCount struct {
	Topic string `json:"topic" yaml:"topic"`
	Count int    `json:"count" yaml:"count"`
}

// Stats summarises the stored records of a book.
type Stats struct {
	Book    string       `json:"book" yaml:"book"`
	Records int          `json:"records" yaml:"records"`
	Topics  []TopicCount `json:"topics,omitempty" yaml:"topics,omitempty"`
}

const table = "verses"

// columns is the shared column order for inserts and selects.
var columns = []string{
	"canonical_id", "book", "verse_ref", "n1", "n2", "n3",
	"root", "reference", "word_for_word", "body", "commentary",
	"topic", "page", "run_id",
}

// ContentHash fingerprints the content of rec. The run id is excluded so an
// unchanged re-run hashes the same.
func ContentHash(rec types.VerseRecord) string {
	h := blake3.New()
	for _, field := range []string{
		rec.CanonicalID, rec.Book, rec.VerseRef,
		rec.Root, rec.Reference, rec.WordForWord, rec.Body, rec.Commentary,
		rec.Topic, strconv.Itoa(rec.Page),
	} {
		_, _ = h.Write([]byte(field))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func values(rec types.VerseRecord) []any {
	return []any{
		rec.CanonicalID, rec.Book, rec.VerseRef, rec.Nums[0], rec.Nums[1], rec.Nums[2],
		rec.Root, rec.Reference, rec.WordForWord, rec.Body, rec.Commentary,
		rec.Topic, rec.Page, rec.RunID,
	}
}

// rowScanner is satisfied by *sql.Row, *sql.Rows and pgx.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (types.VerseRecord, error) {
	var rec types.VerseRecord
	err := row.Scan(
		&rec.CanonicalID, &rec.Book, &rec.VerseRef, &rec.Nums[0], &rec.Nums[1], &rec.Nums[2],
		&rec.Root, &rec.Reference, &rec.WordForWord, &rec.Body, &rec.Commentary,
		&rec.Topic, &rec.Page, &rec.RunID,
	)
	return rec, err
}

func validate(rec types.VerseRecord) error {
	if rec.CanonicalID == "" {
		return errors.New("record has no canonical id")
	}
	return nil
}

// Open opens the backend named by cfg.Store.Driver. The sqlite DSN defaults
// to the database file under dir; the postgres DSN defaults to the managed
// container. Stores with RetryAttempts > 1 are wrapped with WithRetry.
func Open(ctx context.Context, cfg *config.Config, dir *home.Dir, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := config.ResolveEnvVars(cfg.Store.DSN)

	var (
		s   Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		if dsn == "" {
			if dir == nil {
				return nil, errors.New("sqlite store needs a dsn or a home directory")
			}
			if err := dir.EnsureExists(); err != nil {
				return nil, fmt.Errorf("failed to create home directory: %w", err)
			}
			dsn = dir.DatabasePath()
		}
		s, err = OpenSQLite(ctx, dsn)
	case "postgres":
		if dsn == "" {
			dsn = cfg.PostgresDSN()
		}
		s, err = OpenPostgres(ctx, dsn)
	case "memory":
		s = NewMemory()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("store opened", "driver", cfg.Store.Driver)
	if cfg.Store.RetryAttempts > 1 {
		delay := time.Duration(cfg.Store.RetryDelayMS) * time.Millisecond
		s = WithRetry(s, cfg.Store.RetryAttempts, delay, logger)
	}
	return s, nil
}
