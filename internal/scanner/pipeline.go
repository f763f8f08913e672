package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/versemill/internal/classify"
	"github.com/jackzampolin/versemill/internal/config"
	"github.com/jackzampolin/versemill/internal/segment"
	"github.com/jackzampolin/versemill/internal/textnorm"
	"github.com/jackzampolin/versemill/internal/types"
)

// Sink persists finished records. Upsert must be idempotent per canonical
// id; changed reports whether stored content differed.
type Sink interface {
	Upsert(ctx context.Context, rec types.VerseRecord) (changed bool, err error)
}

// RecordError is a sink failure for a single record.
type RecordError struct {
	CanonicalID string
	Page        int
	Err         error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %s (page %d): %v", e.CanonicalID, e.Page, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Failure is the printable form of a RecordError.
type Failure struct {
	CanonicalID string `json:"canonical_id" yaml:"canonical_id"`
	Page        int    `json:"page" yaml:"page"`
	Error       string `json:"error" yaml:"error"`
}

// Report summarises one pipeline run.
type Report struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	Book      string        `json:"book" yaml:"book"`
	Pages     int           `json:"pages" yaml:"pages"`
	Written   int           `json:"written" yaml:"written"`
	Unchanged int           `json:"unchanged" yaml:"unchanged"`
	Failed    int           `json:"failed" yaml:"failed"`
	Failures  []Failure     `json:"failures,omitempty" yaml:"failures,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Stats     `json:"stats" yaml:"stats"`
}

// Pipeline wires the normalizer, classifier and segmenter for a book and
// runs documents through them into a sink.
type Pipeline struct {
	cfg      *config.Config
	norm     *textnorm.Normalizer
	seg      *segment.Segmenter
	trace    TraceFunc
	logger   *slog.Logger
	newRunID func() string
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithTrace reports every block's routing decisions to fn.
func WithTrace(fn TraceFunc) Option {
	return func(p *Pipeline) { p.trace = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline builds the text processing chain from cfg.
func NewPipeline(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg:      cfg,
		logger:   slog.Default(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}

	norm, err := textnorm.New(cfg.Tables, cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("failed to create normalizer: %w", err)
	}
	cls, err := classify.New(classify.Config{
		Tables:     cfg.Tables,
		Thresholds: cfg.Thresholds,
		Patterns:   cfg.Patterns,
		Logger:     p.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}
	seg, err := segment.New(segment.Config{
		Normalizer: norm,
		Classifier: cls,
		Tables:     cfg.Tables,
		Thresholds: cfg.Thresholds,
		Patterns:   cfg.Patterns,
		Logger:     p.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create segmenter: %w", err)
	}

	p.norm = norm
	p.seg = seg
	return p, nil
}

// NewScanner returns a fresh Scanner for one document.
func (p *Pipeline) NewScanner() (*Scanner, error) {
	return New(Config{
		Book:           p.cfg.Book.Acronym,
		InitialTopic:   p.cfg.Book.InitialTopic,
		VerseMarker:    p.cfg.Patterns.VerseMarker,
		ChapterHeader:  p.cfg.Patterns.ChapterHeader,
		MinTopicLength: p.cfg.Thresholds.MinTopicLength,
		Noise:          p.norm,
		Segmenter:      p.seg,
		Trace:          p.trace,
		Logger:         p.logger,
	})
}

// Segment runs the pure scan over pages and returns every record, without
// touching a sink.
func (p *Pipeline) Segment(pages []types.Page) ([]types.VerseRecord, Stats, error) {
	sc, err := p.NewScanner()
	if err != nil {
		return nil, Stats{}, err
	}

	var records []types.VerseRecord
	for _, page := range pages {
		for _, line := range page.Lines {
			if rec, ok := sc.Feed(line); ok {
				records = append(records, rec)
			}
		}
	}
	if rec, ok := sc.Finish(); ok {
		records = append(records, rec)
	}
	return records, sc.Stats(), nil
}

// Run scans pages in order and upserts each record as soon as its block
// closes. A sink failure is recorded and the run continues; the returned
// error joins every RecordError. Cancellation stops between lines, so no
// partial record is ever written.
func (p *Pipeline) Run(ctx context.Context, pages []types.Page, sink Sink) (*Report, error) {
	start := time.Now()
	sc, err := p.NewScanner()
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID: p.newRunID(),
		Book:  p.cfg.Book.Acronym,
		Pages: len(pages),
	}
	logger := p.logger.With("run_id", report.RunID, "book", report.Book)
	logger.Info("scan started", "pages", len(pages))

	var errs []error
	emit := func(rec types.VerseRecord) {
		rec.RunID = report.RunID
		changed, err := sink.Upsert(ctx, rec)
		if err != nil {
			recErr := &RecordError{CanonicalID: rec.CanonicalID, Page: rec.Page, Err: err}
			logger.Error("failed to store record", "canonical_id", rec.CanonicalID, "page", rec.Page, "error", err)
			errs = append(errs, recErr)
			report.Failed++
			report.Failures = append(report.Failures, Failure{CanonicalID: rec.CanonicalID, Page: rec.Page, Error: err.Error()})
			return
		}
		if changed {
			report.Written++
		} else {
			report.Unchanged++
		}
	}

	finish := func() {
		report.Stats = sc.Stats()
		report.Duration = time.Since(start)
	}

	for _, page := range pages {
		for _, line := range page.Lines {
			if err := ctx.Err(); err != nil {
				finish()
				return report, errors.Join(append(errs, err)...)
			}
			if rec, ok := sc.Feed(line); ok {
				emit(rec)
			}
		}
	}
	if rec, ok := sc.Finish(); ok {
		emit(rec)
	}

	finish()
	logger.Info("scan finished",
		"emitted", report.Emitted,
		"written", report.Written,
		"unchanged", report.Unchanged,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration)

	return report, errors.Join(errs...)
}
