package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/versemill/internal/types"
)

// retrying retries transient backend failures. Not-found and context
// errors are returned immediately.
type retrying struct {
	Store
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// WithRetry wraps s so each operation is attempted up to attempts times.
func WithRetry(s Store, attempts int, delay time.Duration, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	if attempts < 1 {
		attempts = 1
	}
	return &retrying{Store: s, attempts: uint(attempts), delay: delay, logger: logger}
}

func retryable(err error) bool {
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func (r *retrying) do(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("store operation failed, retrying", "op", op, "attempt", n+1, "error", err)
		}),
	)
}

func (r *retrying) Upsert(ctx context.Context, rec types.VerseRecord) (bool, error) {
	var changed bool
	err := r.do(ctx, "upsert", func() error {
		var err error
		changed, err = r.Store.Upsert(ctx, rec)
		return err
	})
	return changed, err
}

func (r *retrying) Get(ctx context.Context, canonicalID string) (types.VerseRecord, error) {
	var rec types.VerseRecord
	err := r.do(ctx, "get", func() error {
		var err error
		rec, err = r.Store.Get(ctx, canonicalID)
		return err
	})
	return rec, err
}

func (r *retrying) List(ctx context.Context, opts ListOptions) ([]types.VerseRecord, error) {
	var recs []types.VerseRecord
	err := r.do(ctx, "list", func() error {
		var err error
		recs, err = r.Store.List(ctx, opts)
		return err
	})
	return recs, err
}

func (r *retrying) Stats(ctx context.Context, book string) (Stats, error) {
	var stats Stats
	err := r.do(ctx, "stats", func() error {
		var err error
		stats, err = r.Store.Stats(ctx, book)
		return err
	})
	return stats, err
}
