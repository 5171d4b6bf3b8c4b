package integrity

import "testing"

func setKeyEnv(t *testing.T, keys, key, keyID string) {
	t.Helper()
	t.Setenv("PODCOM_JOURNAL_HMAC_KEYS", keys)
	t.Setenv("PODCOM_JOURNAL_HMAC_KEY", key)
	t.Setenv("PODCOM_JOURNAL_HMAC_KEY_ID", keyID)
}

func TestKeyringFromEnvRequiresKey(t *testing.T) {
	setKeyEnv(t, "", "", "")
	if _, err := KeyringFromEnv(); err == nil {
		t.Fatal("expected error when no key is configured")
	}
}

func TestKeyringFromEnvSingleKey(t *testing.T) {
	setKeyEnv(t, "  ", "secret", " ")
	ring, err := KeyringFromEnv()
	if err != nil {
		t.Fatalf("keyring from env: %v", err)
	}
	if ring.ActiveKeyID() != "v1" {
		t.Fatalf("active key id = %s, want v1", ring.ActiveKeyID())
	}
}

func TestKeyringFromEnvKeySpec(t *testing.T) {
	setKeyEnv(t, "v1=first, v2=second,", "", "v2")
	ring, err := KeyringFromEnv()
	if err != nil {
		t.Fatalf("keyring from env: %v", err)
	}
	if ring.ActiveKeyID() != "v2" {
		t.Fatalf("active key id = %s, want v2", ring.ActiveKeyID())
	}
	if len(ring.KeyIDs()) != 2 {
		t.Fatalf("key ids = %v", ring.KeyIDs())
	}
}

func TestKeyringFromEnvInvalidSpec(t *testing.T) {
	for _, spec := range []string{"v1", "=secret", "v1=", "v1=a,v1=b"} {
		setKeyEnv(t, spec, "", "v1")
		if _, err := KeyringFromEnv(); err == nil {
			t.Fatalf("expected error for spec %q", spec)
		}
	}
}

func TestKeyringFromEnvActiveKeyMissing(t *testing.T) {
	setKeyEnv(t, "v1=first", "", "v3")
	if _, err := KeyringFromEnv(); err == nil {
		t.Fatal("expected error when active key id is not in the spec")
	}
}
