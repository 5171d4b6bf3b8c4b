// Package ledger parses ledger command flags and runs journal maintenance.
package ledger

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	entrypoint "github.com/louisbranch/podcom/internal/platform/cmd"
	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/engine"
	"github.com/louisbranch/podcom/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/podcom/internal/services/ledger/storage/sqlite"
)

// Config holds ledger command configuration.
type Config struct {
	DBPath          string `env:"LEDGER_DB_PATH" envDefault:"data/ledger.db"`
	ProgramID       string `env:"PROGRAM_ID" envDefault:"HEpGLgYsE1kP8aoYKyLFc3JVVrofS7T4zEA6fWBJsZps"`
	Locale          string `env:"LOCALE" envDefault:"en-US"`
	Verify          bool
	AirdropTo       string
	AirdropLamports uint64
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The ledger SQLite database path")
	fs.StringVar(&cfg.ProgramID, "program-id", cfg.ProgramID, "Base58 program id used to derive account addresses")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale for failure messages")
	fs.BoolVar(&cfg.Verify, "verify", false, "Verify the journal hash chain and signatures")
	fs.StringVar(&cfg.AirdropTo, "airdrop-to", "", "Base58 wallet address to credit")
	fs.Uint64Var(&cfg.AirdropLamports, "airdrop-lamports", 0, "Lamports to credit with -airdrop-to")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.AirdropTo = strings.TrimSpace(cfg.AirdropTo)
	if cfg.AirdropTo != "" && cfg.AirdropLamports == 0 {
		return Config{}, errors.New("-airdrop-lamports must be positive when -airdrop-to is set")
	}
	return cfg, nil
}

// Run opens the ledger database and performs the requested maintenance.
// Failures are logged with their code, category and localized message.
func Run(ctx context.Context, cfg Config) error {
	err := entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLedger, func(ctx context.Context) error {
		return run(ctx, cfg)
	})
	if err != nil {
		log.Printf("ledger failed: %s", apperrors.Describe(err, cfg.Locale))
	}
	return err
}

func run(ctx context.Context, cfg Config) error {
	program, err := address.Parse(cfg.ProgramID)
	if err != nil {
		return fmt.Errorf("parse program id: %w", err)
	}
	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		return fmt.Errorf("load journal keyring: %w", err)
	}
	store, err := openStore(cfg.DBPath, keyring)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close ledger store: %v", err)
		}
	}()
	log.Printf("ledger store ready at %s", cfg.DBPath)

	if cfg.Verify {
		verified, err := store.VerifyJournal(ctx)
		if err != nil {
			return fmt.Errorf("verify journal: %w", err)
		}
		log.Printf("journal verified: %d events", verified)
	}

	if cfg.AirdropTo != "" {
		to, err := address.Parse(cfg.AirdropTo)
		if err != nil {
			return fmt.Errorf("parse airdrop address: %w", err)
		}
		host, err := engine.NewHost(store, program)
		if err != nil {
			return fmt.Errorf("new ledger host: %w", err)
		}
		balance, err := host.Airdrop(ctx, to, cfg.AirdropLamports)
		if err != nil {
			return fmt.Errorf("airdrop: %w", err)
		}
		log.Printf("airdropped %d lamports to %s, balance %d", cfg.AirdropLamports, to, balance)
	}

	summary, err := store.OutboxSummary(ctx)
	if err != nil {
		return fmt.Errorf("outbox summary: %w", err)
	}
	log.Printf("outbox: pending=%d processing=%d failed=%d dead=%d",
		summary.PendingCount, summary.ProcessingCount, summary.FailedCount, summary.DeadCount)
	return nil
}

func openStore(path string, keyring *integrity.Keyring) (*sqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ledger db path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger db dir: %w", err)
		}
	}
	store, err := sqlite.Open(path, keyring)
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}
	return store, nil
}
