package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/jackzampolin/versemill/internal/types"
)

// Querier is the subset of *pgxpool.Pool the postgres store uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores records in PostgreSQL, typically the container managed by
// `versemill db`.
type Postgres struct {
	q      Querier
	qb     queries
	closer func()
}

// NewPostgres wraps an existing querier. The schema must already exist.
func NewPostgres(q Querier) *Postgres {
	return &Postgres{q: q, qb: newQueries(sq.Dollar), closer: func() {}}
}

// OpenPostgres connects to dsn, pings it and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// goose needs database/sql
	db := stdlib.OpenDBFromPool(pool)
	if err := migrate(ctx, db, goose.DialectPostgres, "postgres"); err != nil {
		_ = db.Close()
		pool.Close()
		return nil, err
	}

	p := NewPostgres(pool)
	p.closer = func() {
		_ = db.Close()
		pool.Close()
	}
	return p, nil
}

func (p *Postgres) Upsert(ctx context.Context, rec types.VerseRecord) (bool, error) {
	if err := validate(rec); err != nil {
		return false, err
	}
	query, args, err := p.qb.upsert(rec)
	if err != nil {
		return false, err
	}

	tag, err := p.q.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("upsert %s: %w", rec.CanonicalID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) Get(ctx context.Context, canonicalID string) (types.VerseRecord, error) {
	query, args, err := p.qb.get(canonicalID)
	if err != nil {
		return types.VerseRecord{}, err
	}

	rec, err := scanRecord(p.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return types.VerseRecord{}, ErrNotFound
	}
	if err != nil {
		return types.VerseRecord{}, fmt.Errorf("get %s: %w", canonicalID, err)
	}
	return rec, nil
}

func (p *Postgres) List(ctx context.Context, opts ListOptions) ([]types.VerseRecord, error) {
	query, args, err := p.qb.list(opts)
	if err != nil {
		return nil, err
	}

	rows, err := p.q.Query(ctx, query, args...)
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

func (p *Postgres) Stats(ctx context.Context, book string) (Stats, error) {
	query, args, err := p.qb.topics(book)
	if err != nil {
		return Stats{}, err
	}

	rows, err := p.q.Query(ctx, query, args...)
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

func (p *Postgres) Close() error {
	p.closer()
	return nil
}
