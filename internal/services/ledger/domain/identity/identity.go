// Package identity registers principals and authenticates the identity a
// caller presents on every other operation.
package identity

import (
	"fmt"
	"math"
	"strings"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
)

const (
	// MaxMetadataURILen bounds the trimmed metadata pointer.
	MaxMetadataURILen = 200
	// MaxCapabilities is half the uint64 range.
	MaxCapabilities uint64 = math.MaxUint64 / 2
	// InitialReputation is assigned at registration.
	InitialReputation uint64 = 100
)

// RegisterInput registers the signer's identity at Identity.
type RegisterInput struct {
	Identity     address.Address
	Capabilities uint64
	MetadataURI  string
}

// UpdateInput edits the signer's identity. Nil fields are left unchanged.
type UpdateInput struct {
	Identity     address.Address
	Capabilities *uint64
	MetadataURI  *string
}

// Register creates the signer's identity with the baseline reputation.
func Register(tx account.Tx, in RegisterInput) error {
	uri, err := normalizeMetadataURI(in.MetadataURI)
	if err != nil {
		return err
	}
	if err := validateCapabilities(in.Capabilities); err != nil {
		return err
	}

	signer := tx.Signer()
	expected, bump, err := account.IdentityAddress(tx.Deriver(), signer)
	if err != nil {
		return err
	}
	if expected != in.Identity {
		return apperrors.New(apperrors.CodeIdentityAddressMismatch, "identity address does not derive from signer")
	}

	var existing account.Identity
	found, err := tx.Get(in.Identity, &existing)
	if err != nil {
		return err
	}
	if found {
		return apperrors.New(apperrors.CodeIdentityAlreadyExists, fmt.Sprintf("identity %s already registered", in.Identity))
	}

	now := tx.Now()
	rec := account.Identity{
		Owner:        signer,
		Capabilities: in.Capabilities,
		Reputation:   InitialReputation,
		MetadataURI:  uri,
		LastUpdated:  now,
		Bump:         bump,
	}
	if err := tx.Put(in.Identity, rec); err != nil {
		return err
	}
	return tx.Emit(event.Draft{
		Type:    event.TypeIdentityRegistered,
		Address: in.Identity,
		Payload: event.IdentityRegisteredPayload{
			Agent:        in.Identity,
			Owner:        signer,
			Capabilities: rec.Capabilities,
			MetadataURI:  rec.MetadataURI,
			Timestamp:    now,
		},
	})
}

// Update applies owner-authenticated edits to an identity.
func Update(tx account.Tx, in UpdateInput) error {
	rec, err := Authenticate(tx, in.Identity)
	if err != nil {
		return err
	}
	if in.Capabilities != nil {
		if err := validateCapabilities(*in.Capabilities); err != nil {
			return err
		}
		rec.Capabilities = *in.Capabilities
	}
	if in.MetadataURI != nil {
		uri, err := normalizeMetadataURI(*in.MetadataURI)
		if err != nil {
			return err
		}
		rec.MetadataURI = uri
	}

	now := tx.Now()
	rec.LastUpdated = now
	if err := tx.Put(in.Identity, rec); err != nil {
		return err
	}
	return tx.Emit(event.Draft{
		Type:    event.TypeIdentityUpdated,
		Address: in.Identity,
		Payload: event.IdentityUpdatedPayload{
			Agent:        in.Identity,
			Capabilities: rec.Capabilities,
			MetadataURI:  rec.MetadataURI,
			Timestamp:    now,
		},
	})
}

// Authenticate loads the identity at addr and proves the signer controls it:
// the stored owner must be the signer and addr must re-derive from the signer.
func Authenticate(tx account.Tx, addr address.Address) (account.Identity, error) {
	var rec account.Identity
	found, err := tx.Get(addr, &rec)
	if err != nil {
		return account.Identity{}, err
	}
	if !found {
		return account.Identity{}, apperrors.New(apperrors.CodeIdentityNotFound, fmt.Sprintf("no identity at %s", addr))
	}
	signer := tx.Signer()
	if rec.Owner != signer {
		return account.Identity{}, apperrors.New(apperrors.CodeIdentityOwnerMismatch, "signer does not own identity")
	}
	expected, _, err := account.IdentityAddress(tx.Deriver(), signer)
	if err != nil {
		return account.Identity{}, err
	}
	if expected != addr {
		return account.Identity{}, apperrors.New(apperrors.CodeIdentityAddressMismatch, "identity address does not derive from owner")
	}
	return rec, nil
}

// Lookup loads a registered identity without authenticating it.
func Lookup(tx account.Tx, addr address.Address) (account.Identity, bool, error) {
	var rec account.Identity
	found, err := tx.Get(addr, &rec)
	if err != nil {
		return account.Identity{}, false, err
	}
	return rec, found, nil
}

func normalizeMetadataURI(raw string) (string, error) {
	uri := strings.TrimSpace(raw)
	if uri == "" {
		return "", apperrors.New(apperrors.CodeIdentityMetadataURIEmpty, "metadata uri is required")
	}
	if len(uri) > MaxMetadataURILen {
		return "", apperrors.WithMetadata(apperrors.CodeIdentityMetadataURITooLong,
			fmt.Sprintf("metadata uri is %d bytes", len(uri)),
			map[string]string{"Limit": fmt.Sprint(MaxMetadataURILen)})
	}
	return uri, nil
}

func validateCapabilities(caps uint64) error {
	if caps > MaxCapabilities {
		return apperrors.New(apperrors.CodeIdentityCapabilitiesOutOfRange, fmt.Sprintf("capabilities %d exceed ceiling", caps))
	}
	return nil
}
