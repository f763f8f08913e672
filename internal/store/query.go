package store

import (
	"math"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/jackzampolin/versemill/internal/types"
)

// queries builds the SQL shared by the sqlite and postgres backends. Only
// the placeholder format differs between them.
type queries struct {
	sb sq.StatementBuilderType
}

func newQueries(format sq.PlaceholderFormat) queries {
	return queries{sb: sq.StatementBuilder.PlaceholderFormat(format)}
}

// upsertSuffix turns the insert into an upsert that only touches the row
// when the content hash differs, so RowsAffected reports real changes.
var upsertSuffix = func() string {
	var b strings.Builder
	b.WriteString("ON CONFLICT (canonical_id) DO UPDATE SET ")
	for _, col := range columns[1:] {
		b.WriteString(col + " = excluded." + col + ", ")
	}
	b.WriteString("content_hash = excluded.content_hash, updated_at = CURRENT_TIMESTAMP ")
	b.WriteString("WHERE " + table + ".content_hash <> excluded.content_hash")
	return b.String()
}()

func (q queries) upsert(rec types.VerseRecord) (string, []any, error) {
	return q.sb.Insert(table).
		Columns(append(append([]string{}, columns...), "content_hash")...).
		Values(append(values(rec), ContentHash(rec))...).
		Suffix(upsertSuffix).
		ToSql()
}

func (q queries) get(canonicalID string) (string, []any, error) {
	return q.sb.Select(columns...).
		From(table).
		Where(sq.Eq{"canonical_id": canonicalID}).
		ToSql()
}

func (q queries) list(opts ListOptions) (string, []any, error) {
	query := q.sb.Select(columns...).
		From(table).
		OrderBy("book", "n1", "n2", "n3", "canonical_id")
	if opts.Book != "" {
		query = query.Where(sq.Eq{"book": opts.Book})
	}
	if opts.Topic != "" {
		query = query.Where(sq.Eq{"topic": opts.Topic})
	}
	if opts.Limit > 0 {
		query = query.Limit(uint64(opts.Limit))
	} else if opts.Offset > 0 {
		// sqlite rejects OFFSET without LIMIT
		query = query.Limit(math.MaxInt64)
	}
	if opts.Offset > 0 {
		query = query.Offset(uint64(opts.Offset))
	}
	return query.ToSql()
}

// topics groups a book's records by topic in order of first appearance.
func (q queries) topics(book string) (string, []any, error) {
	return q.sb.Select("topic", "COUNT(*)").
		From(table).
		Where(sq.Eq{"book": book}).
		GroupBy("topic").
		OrderBy("MIN(n1 * 1000000 + n2 * 1000 + n3)", "topic").
		ToSql()
}

func statsFrom(book string, topics []TopicCount) Stats {
	stats := Stats{Book: book, Topics: topics}
	for _, t := range topics {
		stats.Records += t.Count
	}
	return stats
}
