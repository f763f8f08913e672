package store

import (
	"context"
	"sort"
	"sync"

	"github.com/jackzampolin/versemill/internal/types"
)

// Memory is an in-process Store, used for dry runs and tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]types.VerseRecord
	hashes  map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]types.VerseRecord),
		hashes:  make(map[string]string),
	}
}

func (m *Memory) Upsert(ctx context.Context, rec types.VerseRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validate(rec); err != nil {
		return false, err
	}

	hash := ContentHash(rec)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hashes[rec.CanonicalID] == hash {
		return false, nil
	}
	m.records[rec.CanonicalID] = rec
	m.hashes[rec.CanonicalID] = hash
	return true, nil
}

func (m *Memory) Get(ctx context.Context, canonicalID string) (types.VerseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[canonicalID]
	if !ok {
		return types.VerseRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) List(ctx context.Context, opts ListOptions) ([]types.VerseRecord, error) {
	m.mu.RLock()
	out := make([]types.VerseRecord, 0, len(m.records))
	for _, rec := range m.records {
		if opts.Book != "" && rec.Book != opts.Book {
			continue
		}
		if opts.Topic != "" && rec.Topic != opts.Topic {
			continue
		}
		out = append(out, rec)
	}
	m.mu.RUnlock()

	sortRecords(out)

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []types.VerseRecord{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *Memory) Stats(ctx context.Context, book string) (Stats, error) {
	recs, err := m.List(ctx, ListOptions{Book: book})
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Book: book, Records: len(recs)}
	index := map[string]int{}
	for _, rec := range recs {
		i, ok := index[rec.Topic]
		if !ok {
			i = len(stats.Topics)
			index[rec.Topic] = i
			stats.Topics = append(stats.Topics, TopicCount{Topic: rec.Topic})
		}
		stats.Topics[i].Count++
	}
	return stats, nil
}

func (m *Memory) Close() error {
	return nil
}

// sortRecords orders records the way the SQL backends do: by book, then
// numerically by verse number, then by id.
func sortRecords(recs []types.VerseRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Book != b.Book {
			return a.Book < b.Book
		}
		for k := range a.Nums {
			if a.Nums[k] != b.Nums[k] {
				return a.Nums[k] < b.Nums[k]
			}
		}
		return a.CanonicalID < b.CanonicalID
	})
}
