package journalkey

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"strings"
	"testing"

	"github.com/louisbranch/podcom/internal/services/ledger/storage/integrity"
)

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("journal-key", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Bytes != 32 || cfg.KeyID != "v1" {
		t.Fatalf("cfg = %+v, want 32 bytes under v1", cfg)
	}
}

func TestParseConfig_Flags(t *testing.T) {
	fs := flag.NewFlagSet("journal-key", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-bytes", "48", "-key-id", " v2 "})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Bytes != 48 || cfg.KeyID != "v2" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestParseConfig_UnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("journal-key", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	if _, err := ParseConfig(fs, []string{"-nope"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestRun_WritesEnvEntries(t *testing.T) {
	var out bytes.Buffer
	reader := bytes.NewReader(bytes.Repeat([]byte{0xab}, 16))
	if err := Run(Config{Bytes: 16, KeyID: "v3"}, &out, reader); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "PODCOM_JOURNAL_HMAC_KEYS=v3=" + strings.Repeat("ab", 16) + "\nPODCOM_JOURNAL_HMAC_KEY_ID=v3\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestRun_OutputLoadsAsKeyring(t *testing.T) {
	var out bytes.Buffer
	if err := Run(Config{Bytes: 32, KeyID: "v7"}, &out, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	t.Setenv("PODCOM_JOURNAL_HMAC_KEY", "")
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			t.Fatalf("line %q is not an assignment", line)
		}
		t.Setenv(name, value)
	}
	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		t.Fatalf("keyring from env: %v", err)
	}
	if keyring.ActiveKeyID() != "v7" {
		t.Fatalf("active key id = %q, want v7", keyring.ActiveKeyID())
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestRun_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		out    *bytes.Buffer
		reader io.Reader
	}{
		{"short secret", Config{Bytes: 8, KeyID: "v1"}, &bytes.Buffer{}, nil},
		{"empty key id", Config{Bytes: 32}, &bytes.Buffer{}, nil},
		{"key id with separator", Config{Bytes: 32, KeyID: "v1=x"}, &bytes.Buffer{}, nil},
		{"key id with comma", Config{Bytes: 32, KeyID: "v1,v2"}, &bytes.Buffer{}, nil},
		{"reader failure", Config{Bytes: 32, KeyID: "v1"}, &bytes.Buffer{}, failingReader{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := Run(tc.cfg, tc.out, tc.reader); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if err := Run(Config{Bytes: 32, KeyID: "v1"}, nil, nil); err == nil {
		t.Fatal("expected error for nil output")
	}
}
