// Package scanner walks a document's line stream, finds verse blocks by
// their number markers, and hands each finished block to the segmenter.
package scanner

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/versemill/internal/segment"
	"github.com/jackzampolin/versemill/internal/types"
)

// State is the outer scanning state.
type State int

const (
	// Scanning means no verse block is open; lines are front matter.
	Scanning State = iota
	// InBlock means lines are collected into the open block.
	InBlock
)

func (s State) String() string {
	if s == InBlock {
		return "IN_BLOCK"
	}
	return "SCANNING"
}

// NoiseFilter drops page furniture before any other processing.
type NoiseFilter interface {
	IsNoise(line string) bool
}

// BlockSegmenter turns the raw lines of one block into fields.
type BlockSegmenter interface {
	Segment(lines []types.RawLine) segment.Segments
	Trace(lines []types.RawLine) (segment.Segments, []segment.Step)
}

// TraceFunc receives the per-line decisions of each segmented block.
type TraceFunc func(canonicalID string, steps []segment.Step)

// Config configures a Scanner.
type Config struct {
	// Book is the acronym prefixed to canonical ids.
	Book          string
	InitialTopic  string
	VerseMarker   string
	ChapterHeader string
	// MinTopicLength is exclusive: a header label must be longer to be accepted.
	MinTopicLength int

	Noise     NoiseFilter
	Segmenter BlockSegmenter
	Trace     TraceFunc
	Logger    *slog.Logger
}

// Stats counts what a scan saw.
type Stats struct {
	Lines   int      `json:"lines" yaml:"lines"`
	Noise   int      `json:"noise" yaml:"noise"`
	Blocks  int      `json:"blocks" yaml:"blocks"`
	Emitted int      `json:"emitted" yaml:"emitted"`
	Skipped int      `json:"skipped" yaml:"skipped"`
	Topics  []string `json:"topics,omitempty" yaml:"topics,omitempty"`
}

type block struct {
	ref   string
	topic string
	page  int
	lines []types.RawLine
}

// Scanner is the outer state machine for one document. It does no I/O:
// Feed and Finish return finished records for the caller to persist.
type Scanner struct {
	cfg        Config
	verse      *regexp.Regexp
	chapter    *regexp.Regexp
	labelGroup int
	logger     *slog.Logger

	state State
	topic string
	open  *block
	stats Stats
}

// New creates a Scanner for a single document.
func New(cfg Config) (*Scanner, error) {
	if cfg.Noise == nil || cfg.Segmenter == nil {
		return nil, errors.New("scanner: noise filter and segmenter are required")
	}
	if cfg.Book == "" {
		return nil, errors.New("scanner: book acronym is required")
	}

	verse, err := regexp.Compile(cfg.VerseMarker)
	if err != nil {
		return nil, fmt.Errorf("verse marker: %w", err)
	}
	if verse.NumSubexp() < 1 {
		return nil, fmt.Errorf("verse marker %q has no capture group", cfg.VerseMarker)
	}
	chapter, err := regexp.Compile(cfg.ChapterHeader)
	if err != nil {
		return nil, fmt.Errorf("chapter header: %w", err)
	}

	// The label is the "label" group if named, else the last group.
	labelGroup := chapter.SubexpIndex("label")
	if labelGroup < 0 {
		labelGroup = chapter.NumSubexp()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scanner{
		cfg:        cfg,
		verse:      verse,
		chapter:    chapter,
		labelGroup: labelGroup,
		logger:     logger,
		state:      Scanning,
		topic:      cfg.InitialTopic,
	}, nil
}

// State returns the current outer state.
func (s *Scanner) State() State {
	return s.state
}

// Topic returns the current chapter context.
func (s *Scanner) Topic() string {
	return s.topic
}

// Stats returns the counters so far.
func (s *Scanner) Stats() Stats {
	return s.stats
}

// Feed processes one line. It returns a record when the line closed a block
// that produced one.
func (s *Scanner) Feed(line types.RawLine) (types.VerseRecord, bool) {
	s.stats.Lines++

	clean := strings.TrimSpace(line.Text)
	if clean == "" {
		s.stats.Noise++
		return types.VerseRecord{}, false
	}

	// Headers first: a header keyword may also be page furniture.
	if m := s.chapter.FindStringSubmatch(clean); m != nil {
		return s.header(clean, m)
	}

	if s.cfg.Noise.IsNoise(clean) {
		s.stats.Noise++
		return types.VerseRecord{}, false
	}

	if m := s.verse.FindStringSubmatch(clean); m != nil {
		rec, ok := s.flush()
		s.open = &block{ref: m[1], topic: s.topic, page: line.Page}
		s.state = InBlock
		s.stats.Blocks++
		return rec, ok
	}

	if s.state == InBlock {
		s.open.lines = append(s.open.lines, line)
	}
	return types.VerseRecord{}, false
}

// header handles a chapter header line. The line is always consumed; the
// topic only changes when the label is long enough and is not a
// "Chapter: page" style index entry.
func (s *Scanner) header(clean string, m []string) (types.VerseRecord, bool) {
	label := ""
	if s.labelGroup > 0 && s.labelGroup < len(m) {
		label = strings.TrimSpace(m[s.labelGroup])
	}
	if label == "" {
		label = clean
	}
	if utf8.RuneCountInString(label) <= s.cfg.MinTopicLength || strings.Contains(label, ":") {
		return types.VerseRecord{}, false
	}

	rec, ok := s.flush()
	s.open = nil
	s.state = Scanning
	s.topic = label
	s.stats.Topics = append(s.stats.Topics, label)
	s.logger.Info("topic", "topic", label)
	return rec, ok
}

// Finish flushes the block still open at the end of the document.
func (s *Scanner) Finish() (types.VerseRecord, bool) {
	rec, ok := s.flush()
	s.open = nil
	s.state = Scanning
	return rec, ok
}

func (s *Scanner) flush() (types.VerseRecord, bool) {
	b := s.open
	if b == nil {
		return types.VerseRecord{}, false
	}
	id := types.CanonicalID(s.cfg.Book, b.ref)

	if len(b.lines) == 0 {
		s.stats.Skipped++
		s.logger.Debug("empty verse block", "canonical_id", id, "page", b.page)
		return types.VerseRecord{}, false
	}

	var seg segment.Segments
	if s.cfg.Trace != nil {
		var steps []segment.Step
		seg, steps = s.cfg.Segmenter.Trace(b.lines)
		s.cfg.Trace(id, steps)
	} else {
		seg = s.cfg.Segmenter.Segment(b.lines)
	}

	if seg.Empty() {
		s.stats.Skipped++
		s.logger.Debug("verse block has no root or body", "canonical_id", id, "page", b.page)
		return types.VerseRecord{}, false
	}

	s.stats.Emitted++
	return types.VerseRecord{
		CanonicalID: id,
		Book:        s.cfg.Book,
		VerseRef:    b.ref,
		Nums:        types.ParseVerseNums(b.ref),
		Root:        seg.Root,
		Reference:   seg.Reference,
		WordForWord: seg.WordForWord,
		Body:        seg.Body,
		Commentary:  seg.Commentary,
		Topic:       b.topic,
		Page:        b.page,
	}, true
}
