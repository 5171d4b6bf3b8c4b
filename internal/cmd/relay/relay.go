// Package relay parses relay command flags and runs the notification relay.
package relay

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	entrypoint "github.com/louisbranch/podcom/internal/platform/cmd"
	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/relay"
	"github.com/louisbranch/podcom/internal/services/ledger/storage"
	"github.com/louisbranch/podcom/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/podcom/internal/services/ledger/storage/sqlite"
)

// Config holds relay command configuration.
type Config struct {
	DBPath          string        `env:"LEDGER_DB_PATH" envDefault:"data/ledger.db"`
	RedisURL        string        `env:"RELAY_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	Stream          string        `env:"RELAY_STREAM" envDefault:"podcom:notifications"`
	StreamMaxLen    int64         `env:"RELAY_STREAM_MAXLEN" envDefault:"100000"`
	BatchSize       int           `env:"RELAY_BATCH_SIZE" envDefault:"50"`
	PollInterval    time.Duration `env:"RELAY_POLL_INTERVAL" envDefault:"2s"`
	SummaryInterval time.Duration `env:"RELAY_SUMMARY_INTERVAL" envDefault:"1m"`
	Locale          string        `env:"LOCALE" envDefault:"en-US"`
	RequeueDead     int
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The ledger SQLite database path")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for the notification stream")
	fs.StringVar(&cfg.Stream, "stream", cfg.Stream, "Redis stream key notifications are appended to")
	fs.Int64Var(&cfg.StreamMaxLen, "stream-maxlen", cfg.StreamMaxLen, "Approximate stream length cap (0 disables trimming)")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Outbox rows claimed per pass")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Outbox poll interval")
	fs.DurationVar(&cfg.SummaryInterval, "summary-interval", cfg.SummaryInterval, "Outbox summary log interval")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for failure messages")
	fs.IntVar(&cfg.RequeueDead, "requeue-dead", 0, "Move up to this many dead-lettered rows back to pending at startup")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.BatchSize <= 0 {
		return Config{}, errors.New("batch size must be positive")
	}
	if cfg.PollInterval <= 0 || cfg.SummaryInterval <= 0 {
		return Config{}, errors.New("poll and summary intervals must be positive")
	}
	return cfg, nil
}

// Run starts the relay until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	err := run(ctx, cfg)
	if err != nil {
		log.Printf("relay failed: %s", apperrors.Describe(err, cfg.Locale))
	}
	return err
}

func run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRelay, func(ctx context.Context) error {
		keyring, err := integrity.KeyringFromEnv()
		if err != nil {
			return fmt.Errorf("load journal keyring: %w", err)
		}
		if strings.TrimSpace(cfg.DBPath) == "" {
			return errors.New("ledger db path is required")
		}
		store, err := sqlite.Open(cfg.DBPath, keyring)
		if err != nil {
			return fmt.Errorf("open ledger store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close ledger store: %v", err)
			}
		}()

		client, err := newRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Printf("close redis client: %v", err)
			}
		}()

		publisher, err := relay.NewStreamPublisher(client, cfg.Stream, cfg.StreamMaxLen)
		if err != nil {
			return err
		}
		return serve(ctx, cfg, store, publisher)
	})
}

func newRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type relayStore interface {
	relay.Store
	OutboxSummary(ctx context.Context) (storage.OutboxSummary, error)
	RequeueDeadOutbox(ctx context.Context, limit int, now time.Time) (int, error)
}

func serve(ctx context.Context, cfg Config, store relayStore, publisher relay.Publisher) error {
	if cfg.RequeueDead > 0 {
		n, err := store.RequeueDeadOutbox(ctx, cfg.RequeueDead, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("requeue dead outbox rows: %w", err)
		}
		log.Printf("requeued %d dead outbox rows", n)
	}

	worker, err := relay.New(store, publisher, relay.Config{
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.PollInterval,
	})
	if err != nil {
		return err
	}

	log.Printf("relay publishing to stream %s every %s", cfg.Stream, cfg.PollInterval)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return worker.Run(gctx)
	})
	group.Go(func() error {
		return logSummaries(gctx, store, cfg.SummaryInterval)
	})
	return group.Wait()
}

func logSummaries(ctx context.Context, store relayStore, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		summary, err := store.OutboxSummary(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("outbox summary: %v", err)
			continue
		}
		if summary.OldestPendingSeq == 0 {
			log.Printf("outbox: pending=%d processing=%d failed=%d dead=%d",
				summary.PendingCount, summary.ProcessingCount, summary.FailedCount, summary.DeadCount)
			continue
		}
		log.Printf("outbox: pending=%d processing=%d failed=%d dead=%d oldest=seq %d due %s",
			summary.PendingCount, summary.ProcessingCount, summary.FailedCount, summary.DeadCount,
			summary.OldestPendingSeq, summary.OldestPendingAt.Format(time.RFC3339))
	}
}
