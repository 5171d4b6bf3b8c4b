// Package journalkey generates journal signing keys in the form the ledger
// and relay commands read from PODCOM_JOURNAL_HMAC_KEYS.
package journalkey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	entrypoint "github.com/louisbranch/podcom/internal/platform/cmd"
)

const minBytes = 16

// Config holds key generation settings.
type Config struct {
	Bytes int
	KeyID string
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Bytes: 32, KeyID: "v1"}
	fs.IntVar(&cfg.Bytes, "bytes", cfg.Bytes, "Number of random bytes in the secret")
	fs.StringVar(&cfg.KeyID, "key-id", cfg.KeyID, "Key id the secret is registered under")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	return cfg, nil
}

// Run generates a secret and writes the keyring entry and active key id as
// env assignments. A nil reader uses crypto/rand.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.Bytes < minBytes {
		return fmt.Errorf("bytes must be at least %d", minBytes)
	}
	if cfg.KeyID == "" || strings.ContainsAny(cfg.KeyID, "=, \t") {
		return fmt.Errorf("key id %q must be non-empty without '=', ',' or spaces", cfg.KeyID)
	}
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	buf := make([]byte, cfg.Bytes)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return fmt.Errorf("generate random bytes: %w", err)
	}
	_, err := fmt.Fprintf(out, "PODCOM_JOURNAL_HMAC_KEYS=%s=%s\nPODCOM_JOURNAL_HMAC_KEY_ID=%s\n",
		cfg.KeyID, hex.EncodeToString(buf), cfg.KeyID)
	return err
}
