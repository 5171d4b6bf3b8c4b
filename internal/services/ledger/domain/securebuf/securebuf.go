// Package securebuf provides scoped scratch buffers that are zeroed when the
// scope ends, plus constant-time comparison for hash values.
package securebuf

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/sha3"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
)

// MaxSize bounds a single buffer.
const MaxSize = 64 * 1024

// Buffer is an exclusively owned byte buffer.
type Buffer struct {
	data     []byte
	released bool
}

// Acquire returns a zero-initialised buffer of size bytes.
func Acquire(size int) (*Buffer, error) {
	if size <= 0 || size > MaxSize {
		return nil, apperrors.New(apperrors.CodeSecureBufferAllocation,
			fmt.Sprintf("buffer size %d outside 1..%d", size, MaxSize))
	}
	return &Buffer{data: make([]byte, size)}, nil
}

// Bytes exposes the underlying storage. It is nil once released.
func (b *Buffer) Bytes() []byte {
	if b == nil || b.released {
		return nil
	}
	return b.data
}

// Len returns the buffer size.
func (b *Buffer) Len() int {
	if b == nil || b.released {
		return 0
	}
	return len(b.data)
}

// Release overwrites the buffer with zeros. Calling it again is a no-op.
func (b *Buffer) Release() {
	if b == nil || b.released {
		return
	}
	clear(b.data)
	b.released = true
}

// With acquires a buffer for the duration of fn. The buffer is released on
// every exit path, including a panic inside fn.
func With(size int, fn func(*Buffer) error) error {
	buf, err := Acquire(size)
	if err != nil {
		return err
	}
	defer buf.Release()
	return fn(buf)
}

// Hash packs fields into a scoped buffer via pack and returns the SHA3-256 of
// the written prefix. pack returns the number of bytes it wrote.
func Hash(size int, pack func([]byte) int) ([32]byte, error) {
	var sum [32]byte
	err := With(size, func(buf *Buffer) error {
		n := pack(buf.Bytes())
		if n < 0 || n > buf.Len() {
			return apperrors.New(apperrors.CodeHashFailed,
				fmt.Sprintf("packed %d bytes into a %d byte buffer", n, buf.Len()))
		}
		sum = sha3.Sum256(buf.Bytes()[:n])
		return nil
	})
	return sum, err
}

// Equal compares a and b without an early exit on the first differing byte.
// Slices of different length are unequal.
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
