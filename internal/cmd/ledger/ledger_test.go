package ledger

import (
	"bytes"
	"context"
	"flag"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/engine"
	"github.com/louisbranch/podcom/internal/services/ledger/storage/integrity"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	t.Setenv("PODCOM_LEDGER_DB_PATH", "/tmp/env.db")

	cfg, err := ParseConfig(fs, []string{"-verify", "-airdrop-to", " abc ", "-airdrop-lamports", "500"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "/tmp/env.db")
	}
	if cfg.ProgramID != "HEpGLgYsE1kP8aoYKyLFc3JVVrofS7T4zEA6fWBJsZps" {
		t.Fatalf("program id = %q", cfg.ProgramID)
	}
	if cfg.Locale != "en-US" {
		t.Fatalf("locale = %q, want en-US", cfg.Locale)
	}
	if !cfg.Verify || cfg.AirdropTo != "abc" || cfg.AirdropLamports != 500 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestParseConfig_FlagOverridesEnv(t *testing.T) {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	t.Setenv("PODCOM_LEDGER_DB_PATH", "/tmp/env.db")

	cfg, err := ParseConfig(fs, []string{"-db-path", "/tmp/flag.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/flag.db" {
		t.Fatalf("db path = %q, want %q", cfg.DBPath, "/tmp/flag.db")
	}
}

func TestParseConfig_AirdropNeedsLamports(t *testing.T) {
	fs := flag.NewFlagSet("ledger", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-airdrop-to", "abc"}); err == nil {
		t.Fatal("expected error for airdrop without lamports")
	}
}

func TestRun_VerifiesAndAirdrops(t *testing.T) {
	t.Setenv("PODCOM_JOURNAL_HMAC_KEY", "test-secret")
	dbPath := filepath.Join(t.TempDir(), "nested", "ledger.db")
	wallet := address.Address{9, 9, 9}
	cfg := Config{
		DBPath:          dbPath,
		ProgramID:       "HEpGLgYsE1kP8aoYKyLFc3JVVrofS7T4zEA6fWBJsZps",
		Verify:          true,
		AirdropTo:       wallet.String(),
		AirdropLamports: 250,
	}
	ctx := context.Background()
	if err := run(ctx, cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := run(ctx, cfg); err != nil {
		t.Fatalf("second run: %v", err)
	}

	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	store, err := openStore(dbPath, keyring)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	host, err := engine.NewHost(store, address.MustParse(cfg.ProgramID))
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	balance, err := host.Balance(ctx, wallet)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 500 {
		t.Fatalf("balance = %d, want 500", balance)
	}
}

func TestRun_RequiresKeyring(t *testing.T) {
	t.Setenv("PODCOM_JOURNAL_HMAC_KEYS", "")
	t.Setenv("PODCOM_JOURNAL_HMAC_KEY", "")
	cfg := Config{DBPath: filepath.Join(t.TempDir(), "ledger.db"), ProgramID: "HEpGLgYsE1kP8aoYKyLFc3JVVrofS7T4zEA6fWBJsZps"}
	if err := run(context.Background(), cfg); err == nil {
		t.Fatal("expected error without journal key")
	}
}

func TestRun_RejectsBadProgramID(t *testing.T) {
	t.Setenv("PODCOM_JOURNAL_HMAC_KEY", "test-secret")
	cfg := Config{DBPath: filepath.Join(t.TempDir(), "ledger.db"), ProgramID: "not-base58-0OIl"}
	if err := run(context.Background(), cfg); err == nil {
		t.Fatal("expected error for invalid program id")
	}
}

func TestRun_LogsLocalizedFailure(t *testing.T) {
	t.Setenv("PODCOM_JOURNAL_HMAC_KEY", "test-secret")
	var out bytes.Buffer
	log.SetOutput(&out)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	wallet := address.Address{7, 7, 7}
	cfg := Config{
		DBPath:          filepath.Join(t.TempDir(), "ledger.db"),
		ProgramID:       "HEpGLgYsE1kP8aoYKyLFc3JVVrofS7T4zEA6fWBJsZps",
		Locale:          "en-US",
		AirdropTo:       wallet.String(),
		AirdropLamports: math.MaxUint64,
	}
	ctx := context.Background()
	if err := Run(ctx, cfg); err != nil {
		t.Fatalf("first run: %v", err)
	}
	cfg.AirdropLamports = 1
	err := Run(ctx, cfg)
	if err == nil {
		t.Fatal("expected overflow error")
	}
	logged := out.String()
	for _, part := range []string{"ledger failed:", "ACCOUNT_BALANCE_OVERFLOW", "retryable=false", "The account balance would overflow."} {
		if !strings.Contains(logged, part) {
			t.Fatalf("log = %q, missing %q", logged, part)
		}
	}
}
