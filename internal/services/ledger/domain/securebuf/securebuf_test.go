package securebuf

import (
	"errors"
	"testing"

	"golang.org/x/crypto/sha3"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
)

func TestAcquireRejectsBadSize(t *testing.T) {
	for _, size := range []int{0, -1, MaxSize + 1} {
		if _, err := Acquire(size); !apperrors.HasCode(err, apperrors.CodeSecureBufferAllocation) {
			t.Fatalf("Acquire(%d) error = %v", size, err)
		}
	}
}

func TestReleaseZeroesAndIsIdempotent(t *testing.T) {
	buf, err := Acquire(8)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	data := buf.Bytes()
	copy(data, "secret!!")
	buf.Release()
	buf.Release()

	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d = %d after release, want 0", i, b)
		}
	}
	if buf.Bytes() != nil {
		t.Fatal("expected released buffer to expose nothing")
	}
}

func TestWithReleasesOnError(t *testing.T) {
	var leaked []byte
	wantErr := errors.New("boom")
	err := With(4, func(buf *Buffer) error {
		leaked = buf.Bytes()
		copy(leaked, "abcd")
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("With error = %v, want %v", err, wantErr)
	}
	if string(leaked) != "\x00\x00\x00\x00" {
		t.Fatalf("buffer not zeroed: %q", leaked)
	}
}

func TestWithReleasesOnPanic(t *testing.T) {
	var leaked []byte
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = With(4, func(buf *Buffer) error {
			leaked = buf.Bytes()
			copy(leaked, "abcd")
			panic("boom")
		})
	}()
	if string(leaked) != "\x00\x00\x00\x00" {
		t.Fatalf("buffer not zeroed after panic: %q", leaked)
	}
}

func TestHash(t *testing.T) {
	got, err := Hash(16, func(buf []byte) int {
		return copy(buf, "hello")
	})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if want := sha3.Sum256([]byte("hello")); got != want {
		t.Fatalf("hash = %x, want %x", got, want)
	}

	_, err = Hash(4, func([]byte) int { return 5 })
	if !apperrors.HasCode(err, apperrors.CodeHashFailed) {
		t.Fatalf("expected hash failure, got %v", err)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"abc", "abc", true},
		{"abc", "abd", false},
		{"abc", "abcd", false},
		{"", "", true},
	}
	for _, tc := range tests {
		if got := Equal([]byte(tc.a), []byte(tc.b)); got != tc.want {
			t.Fatalf("Equal(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
