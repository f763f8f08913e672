package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/types"
)

// fakeSink stores records by id and fails for the ids in failOn.
type fakeSink struct {
	mu      sync.Mutex
	records map[string]types.VerseRecord
	failOn  map[string]bool
	calls   int
}

func newFakeSink(failOn ...string) *fakeSink {
	s := &fakeSink{records: map[string]types.VerseRecord{}, failOn: map[string]bool{}}
	for _, id := range failOn {
		s.failOn[id] = true
	}
	return s
}

func (s *fakeSink) Upsert(_ context.Context, rec types.VerseRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failOn[rec.CanonicalID] {
		return false, errors.New("disk full")
	}

	prev, ok := s.records[rec.CanonicalID]
	s.records[rec.CanonicalID] = rec
	prev.RunID, rec.RunID = "", ""
	return !ok || prev != rec, nil
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(config.DefaultConfig())
	require.NoError(t, err)
	ids := []string{"run-1", "run-2", "run-3"}
	p.newRunID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	return p
}

func TestPipeline_Run(t *testing.T) {
	p := newTestPipeline(t)
	sink := newFakeSink()

	report, err := p.Run(context.Background(), sampleDocument(), sink)
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "SLK", report.Book)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 2, report.Written)
	assert.Equal(t, 0, report.Unchanged)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 2, report.Emitted)
	assert.Equal(t, 1, report.Skipped)

	require.Len(t, sink.records, 2)
	assert.Equal(t, "run-1", sink.records["SLK_1.1"].RunID)
	assert.Equal(t, "SAMBANDHA", sink.records["SLK_1.2"].Topic)
}

func TestPipeline_RunIsIdempotent(t *testing.T) {
	p := newTestPipeline(t)
	sink := newFakeSink()

	_, err := p.Run(context.Background(), sampleDocument(), sink)
	require.NoError(t, err)
	first := sink.records["SLK_1.1"]

	report, err := p.Run(context.Background(), sampleDocument(), sink)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Written)
	assert.Equal(t, 2, report.Unchanged)
	assert.Len(t, sink.records, 2)

	second := sink.records["SLK_1.1"]
	first.RunID, second.RunID = "", ""
	assert.Equal(t, first, second)
}

func TestPipeline_SinkFailureContinues(t *testing.T) {
	p := newTestPipeline(t)
	sink := newFakeSink("SLK_1.1")

	report, err := p.Run(context.Background(), sampleDocument(), sink)
	require.Error(t, err)

	var recErr *RecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, "SLK_1.1", recErr.CanonicalID)
	assert.Equal(t, 9, recErr.Page)
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Written)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "SLK_1.1", report.Failures[0].CanonicalID)

	_, stored := sink.records["SLK_1.2"]
	assert.True(t, stored, "later records should still be written")
}

func TestPipeline_Cancelled(t *testing.T) {
	p := newTestPipeline(t)
	sink := newFakeSink()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, sampleDocument(), sink)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sink.calls)
	assert.Zero(t, report.Lines)
}

func TestPipeline_Segment(t *testing.T) {
	p := newTestPipeline(t)

	records, stats, err := p.Segment(sampleDocument())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "SLK_1.1", records[0].CanonicalID)
	assert.Empty(t, records[0].RunID)
	assert.Equal(t, []string{"SAMBANDHA", "The Process"}, stats.Topics)
	assert.Equal(t, 15, stats.Lines)
}

func TestPipeline_InvalidTables(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tables.Diacritics = append(cfg.Tables.Diacritics, config.Replacement{From: "ñ", To: "ṣ"})

	_, err := NewPipeline(cfg)
	assert.Error(t, err)
}

func TestRecordError(t *testing.T) {
	inner := errors.New("boom")
	err := &RecordError{CanonicalID: "SLK_2.3", Page: 41, Err: inner}

	assert.Equal(t, "record SLK_2.3 (page 41): boom", err.Error())
	assert.ErrorIs(t, err, inner)
}
