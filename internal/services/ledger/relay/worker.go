package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
	"github.com/louisbranch/podcom/internal/services/ledger/storage"
)

const (
	defaultBatchSize    = 50
	defaultPollInterval = 2 * time.Second
)

// Store is the journal and outbox access the worker needs.
type Store interface {
	GetEvent(ctx context.Context, seq uint64) (event.Event, error)
	ClaimOutbox(ctx context.Context, now time.Time, limit int) ([]storage.OutboxEntry, error)
	CompleteOutbox(ctx context.Context, seq uint64) error
	RetryOutbox(ctx context.Context, entry storage.OutboxEntry, now time.Time, lastError string) error
}

// Publisher delivers one notification and returns a delivery id.
type Publisher interface {
	Publish(ctx context.Context, evt event.Event) (string, error)
}

// Config controls batch size and polling cadence.
type Config struct {
	BatchSize    int
	PollInterval time.Duration
}

func (c Config) normalized() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	return c
}

// Result counts the outcome of one pass.
type Result struct {
	Claimed      int
	Published    int
	Retried      int
	DeadLettered int
}

// Worker moves outbox rows to a publisher.
type Worker struct {
	store     Store
	publisher Publisher
	cfg       Config
	now       func() time.Time
	logf      func(string, ...any)
}

// Option configures a Worker.
type Option func(*Worker)

// WithClock overrides the worker clock.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLogger overrides where delivery failures are reported.
func WithLogger(logf func(string, ...any)) Option {
	return func(w *Worker) {
		if logf != nil {
			w.logf = logf
		}
	}
}

// New returns a worker draining store into publisher.
func New(store Store, publisher Publisher, cfg Config, opts ...Option) (*Worker, error) {
	if store == nil {
		return nil, errors.New("outbox store is required")
	}
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	w := &Worker{
		store:     store,
		publisher: publisher,
		cfg:       cfg.normalized(),
		now:       time.Now,
		logf:      log.Printf,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run polls until ctx is done. Pass errors are logged, not returned.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		res, err := w.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			w.logf("relay pass: %v", err)
		}
		// A full batch usually means more rows are due.
		if err == nil && res.Claimed == w.cfg.BatchSize {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce claims one batch and delivers it.
func (w *Worker) RunOnce(ctx context.Context) (Result, error) {
	entries, err := w.store.ClaimOutbox(ctx, w.now().UTC(), w.cfg.BatchSize)
	if err != nil {
		return Result{}, fmt.Errorf("claim outbox: %w", err)
	}
	res := Result{Claimed: len(entries)}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		deliverErr := w.deliver(ctx, entry)
		if deliverErr == nil {
			if err := w.store.CompleteOutbox(ctx, entry.Seq); err != nil {
				return res, fmt.Errorf("complete outbox seq %d: %w", entry.Seq, err)
			}
			res.Published++
			continue
		}

		if err := w.store.RetryOutbox(ctx, entry, w.now().UTC(), deliverErr.Error()); err != nil {
			return res, fmt.Errorf("retry outbox seq %d: %w", entry.Seq, err)
		}
		attempt := entry.AttemptCount + 1
		if storage.NextOutboxStatus(attempt) == storage.OutboxDead {
			res.DeadLettered++
			w.logf("relay seq %d (%s) dead-lettered after %d attempts: %v", entry.Seq, entry.EventType, attempt, deliverErr)
			continue
		}
		res.Retried++
		w.logf("relay seq %d (%s) attempt %d failed, retry in %s: %v",
			entry.Seq, entry.EventType, attempt, storage.OutboxRetryBackoff(attempt), deliverErr)
	}
	return res, nil
}

func (w *Worker) deliver(ctx context.Context, entry storage.OutboxEntry) error {
	evt, err := w.store.GetEvent(ctx, entry.Seq)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if _, err := w.publisher.Publish(ctx, evt); err != nil {
		return err
	}
	return nil
}
