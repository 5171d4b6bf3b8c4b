// Package address derives the canonical storage location of every ledger
// entity from a domain tag and its identifying fields.
//
// Derivation is pure: any component can recompute the expected address of an
// entity it is handed and reject the entity when the two differ. Derived
// addresses are never valid ed25519 points, so they cannot collide with an
// owner key.
package address

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
)

const (
	// Size is the byte length of an address.
	Size = 32
	// MaxSeedLen bounds a single identifying field.
	MaxSeedLen = 32
	// MaxSeeds bounds the number of identifying fields, tag included.
	MaxSeeds = 16

	derivationMarker = "ProgramDerivedAddress"
)

// Domain tags.
const (
	TagAgent          = "agent"
	TagMessage        = "message"
	TagChannel        = "channel"
	TagParticipant    = "participant"
	TagInvitation     = "invitation"
	TagEscrow         = "escrow"
	TagChannelMessage = "channel_message"
)

// Address is a 32-byte storage location or owner key.
type Address [Size]byte

// Zero is the empty address.
var Zero Address

// IsZero reports whether a is unset.
func (a Address) IsZero() bool {
	return a == Zero
}

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, a[:])
	return out
}

// String renders the address in base58.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Parse decodes a base58 address.
func Parse(value string) (Address, error) {
	raw, err := base58.Decode(value)
	if err != nil {
		return Zero, fmt.Errorf("decode address %q: %w", value, err)
	}
	if len(raw) != Size {
		return Zero, fmt.Errorf("decode address %q: got %d bytes, want %d", value, len(raw), Size)
	}
	var out Address
	copy(out[:], raw)
	return out, nil
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(value string) Address {
	out, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return out
}

// FromBytes copies a 32-byte slice into an Address.
func FromBytes(raw []byte) (Address, error) {
	if len(raw) != Size {
		return Zero, fmt.Errorf("address must be %d bytes, got %d", Size, len(raw))
	}
	var out Address
	copy(out[:], raw)
	return out, nil
}

// OnCurve reports whether a is a valid ed25519 point, i.e. could be an owner
// key rather than a derived address.
func OnCurve(a Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}

// Deriver derives addresses owned by a single program.
type Deriver struct {
	Program Address
}

// NewDeriver returns a deriver for program.
func NewDeriver(program Address) Deriver {
	return Deriver{Program: program}
}

// Derive returns the canonical address for tag and seeds along with the bump
// that moved it off the ed25519 curve. Bumps are tried from 255 downward.
func (d Deriver) Derive(tag string, seeds ...[]byte) (Address, uint8, error) {
	if err := validateSeeds(tag, seeds); err != nil {
		return Zero, 0, err
	}
	for bump := 255; bump >= 0; bump-- {
		candidate := d.hash(tag, seeds, uint8(bump))
		if !OnCurve(candidate) {
			return candidate, uint8(bump), nil
		}
	}
	return Zero, 0, apperrors.New(apperrors.CodeAddressNoViableBump, "no off-curve address for seeds")
}

// CreateWithBump recomputes the address for a known bump. The result is
// rejected when it lands on the curve.
func (d Deriver) CreateWithBump(tag string, bump uint8, seeds ...[]byte) (Address, error) {
	if err := validateSeeds(tag, seeds); err != nil {
		return Zero, err
	}
	candidate := d.hash(tag, seeds, bump)
	if OnCurve(candidate) {
		return Zero, apperrors.New(apperrors.CodeAddressNoViableBump, "bump yields an on-curve address")
	}
	return candidate, nil
}

// Verify reports whether addr is the canonical derivation of tag and seeds.
func (d Deriver) Verify(addr Address, tag string, seeds ...[]byte) (bool, error) {
	expected, _, err := d.Derive(tag, seeds...)
	if err != nil {
		return false, err
	}
	return expected == addr, nil
}

func (d Deriver) hash(tag string, seeds [][]byte, bump uint8) Address {
	h := sha256.New()
	h.Write([]byte(tag))
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(d.Program[:])
	h.Write([]byte(derivationMarker))
	var out Address
	copy(out[:], h.Sum(nil))
	return out
}

func validateSeeds(tag string, seeds [][]byte) error {
	if len(seeds)+1 > MaxSeeds {
		return apperrors.WithMetadata(apperrors.CodeAddressTooManySeeds,
			fmt.Sprintf("%d seeds exceed the limit of %d", len(seeds)+1, MaxSeeds),
			map[string]string{"Limit": fmt.Sprint(MaxSeeds)})
	}
	if len(tag) == 0 || len(tag) > MaxSeedLen {
		return apperrors.WithMetadata(apperrors.CodeAddressSeedTooLong,
			fmt.Sprintf("tag %q must be 1-%d bytes", tag, MaxSeedLen),
			map[string]string{"Limit": fmt.Sprint(MaxSeedLen)})
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return apperrors.WithMetadata(apperrors.CodeAddressSeedTooLong,
				fmt.Sprintf("seed %d is %d bytes", i, len(seed)),
				map[string]string{"Limit": fmt.Sprint(MaxSeedLen)})
		}
	}
	return nil
}

// U64 encodes n as an 8-byte little-endian seed.
func U64(n uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, n)
	return out
}

// NameSeed reduces a human-readable name to a fixed 32-byte seed.
func NameSeed(name string) []byte {
	sum := sha3.Sum256(bytes.TrimSpace([]byte(name)))
	return sum[:]
}
