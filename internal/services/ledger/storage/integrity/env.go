package integrity

import (
	"fmt"
	"os"
	"strings"
)

const (
	envHMACKeys  = "PODCOM_JOURNAL_HMAC_KEYS"
	envHMACKey   = "PODCOM_JOURNAL_HMAC_KEY"
	envHMACKeyID = "PODCOM_JOURNAL_HMAC_KEY_ID"
	defaultKeyID = "v1"
)

// KeyringFromEnv builds the journal keyring from PODCOM_JOURNAL_HMAC_KEYS
// ("id=secret,id=secret") or the single PODCOM_JOURNAL_HMAC_KEY, with
// PODCOM_JOURNAL_HMAC_KEY_ID selecting the active key.
func KeyringFromEnv() (*Keyring, error) {
	keyID := strings.TrimSpace(os.Getenv(envHMACKeyID))
	if keyID == "" {
		keyID = defaultKeyID
	}

	spec := strings.TrimSpace(os.Getenv(envHMACKeys))
	if spec == "" {
		raw := strings.TrimSpace(os.Getenv(envHMACKey))
		if raw == "" {
			return nil, fmt.Errorf("%s or %s is required", envHMACKeys, envHMACKey)
		}
		return NewKeyring(map[string][]byte{keyID: []byte(raw)}, keyID)
	}

	keys, err := parseKeySpec(spec)
	if err != nil {
		return nil, err
	}
	return NewKeyring(keys, keyID)
}

func parseKeySpec(spec string) (map[string][]byte, error) {
	keys := make(map[string][]byte)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, secret, ok := strings.Cut(entry, "=")
		id = strings.TrimSpace(id)
		secret = strings.TrimSpace(secret)
		if !ok || id == "" || secret == "" {
			return nil, fmt.Errorf("invalid %s entry %q", envHMACKeys, id)
		}
		if _, dup := keys[id]; dup {
			return nil, fmt.Errorf("duplicate %s entry %q", envHMACKeys, id)
		}
		keys[id] = []byte(secret)
	}
	return keys, nil
}
