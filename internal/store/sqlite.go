package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/jackzampolin/versemill/internal/types"
)

// SQLite is the default Store, a single database file under the home
// directory.
type SQLite struct {
	db *sql.DB
	q  queries
}

// OpenSQLite opens (creating if needed) the database at dsn and applies
// migrations. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One writer; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}

	if err := migrate(ctx, db, goose.DialectSQLite3, "sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db, q: newQueries(sq.Question)}, nil
}

func (s *SQLite) Upsert(ctx context.Context, rec types.VerseRecord) (bool, error) {
	if err := validate(rec); err != nil {
		return false, err
	}
	query, args, err := s.q.upsert(rec)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("upsert %s: %w", rec.CanonicalID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLite) Get(ctx context.Context, canonicalID string) (types.VerseRecord, error) {
	query, args, err := s.q.get(canonicalID)
	if err != nil {
		return types.VerseRecord{}, err
	}

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return types.VerseRecord{}, ErrNotFound
	}
	if err != nil {
		return types.VerseRecord{}, fmt.Errorf("get %s: %w", canonicalID, err)
	}
	return rec, nil
}

func (s *SQLite) List(ctx context.Context, opts ListOptions) ([]types.VerseRecord, error) {
	query, args, err := s.q.list(opts)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	recs := []types.VerseRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLite) Stats(ctx context.Context, book string) (Stats, error) {
	query, args, err := s.q.topics(book)
	if err != nil {
		return Stats{}, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Stats{}, fmt.Errorf("record stats: %w", err)
	}
	defer rows.Close()

	var topics []TopicCount
	for rows.Next() {
		var t TopicCount
		if err := rows.Scan(&t.Topic, &t.Count); err != nil {
			return Stats{}, fmt.Errorf("record stats: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	return statsFrom(book, topics), nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
