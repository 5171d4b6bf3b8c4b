// Package invitation issues and redeems single-use entries into private
// channels. Each invitation carries a Keccak-256 commitment over its defining
// fields; redemption recomputes it so a forged record cannot be redeemed.
package invitation

import (
	"encoding/binary"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/identity"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/securebuf"
)

// Expiry is how long an invitation stays redeemable.
const Expiry = 7 * 24 * time.Hour

const commitmentInputLen = 3*address.Size + 8 + 8

// CreateInput issues an invitation from Inviter to Invitee, both identity
// addresses.
type CreateInput struct {
	Channel    address.Address
	Inviter    address.Address
	Invitee    address.Address
	Invitation address.Address
	Nonce      uint64
}

// RedeemInput consumes the invitation at Address on behalf of Claimant.
type RedeemInput struct {
	Address    address.Address
	Invitation *account.Invitation
	Channel    address.Address
	Claimant   address.Address
}

// Commitment hashes channel ∥ inviter ∥ invitee ∥ nonce ∥ created_at (unix
// seconds), integers little-endian.
func Commitment(channel, inviter, invitee address.Address, nonce uint64, createdAt time.Time) ([32]byte, error) {
	var sum [32]byte
	err := securebuf.With(commitmentInputLen, func(buf *securebuf.Buffer) error {
		b := buf.Bytes()
		off := copy(b, channel[:])
		off += copy(b[off:], inviter[:])
		off += copy(b[off:], invitee[:])
		binary.LittleEndian.PutUint64(b[off:], nonce)
		binary.LittleEndian.PutUint64(b[off+8:], uint64(createdAt.Unix()))

		h := sha3.NewLegacyKeccak256()
		if _, err := h.Write(b); err != nil {
			return apperrors.Wrap(apperrors.CodeHashFailed, "hash invitation commitment", err)
		}
		copy(sum[:], h.Sum(nil))
		return nil
	})
	return sum, err
}

// Create issues an invitation. The inviter must be the channel creator or an
// active participant.
func Create(tx account.Tx, in CreateInput) error {
	if _, err := identity.Authenticate(tx, in.Inviter); err != nil {
		return err
	}

	var ch account.Channel
	found, err := tx.Get(in.Channel, &ch)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.New(apperrors.CodeChannelNotFound, fmt.Sprintf("no channel at %s", in.Channel))
	}
	if !ch.Active {
		return apperrors.New(apperrors.CodeChannelInactive, "channel is inactive")
	}
	if err := authorizeInviter(tx, in.Channel, ch, in.Inviter); err != nil {
		return err
	}

	if _, found, err := identity.Lookup(tx, in.Invitee); err != nil {
		return err
	} else if !found {
		return apperrors.New(apperrors.CodeInvitationInviteeMissing, fmt.Sprintf("no identity at %s", in.Invitee))
	}

	expected, bump, err := account.InvitationAddress(tx.Deriver(), in.Channel, in.Invitee, in.Nonce)
	if err != nil {
		return err
	}
	if expected != in.Invitation {
		return apperrors.New(apperrors.CodeInvitationAddressMismatch, "invitation address does not derive from channel, invitee and nonce")
	}
	var existing account.Invitation
	found, err = tx.Get(in.Invitation, &existing)
	if err != nil {
		return err
	}
	if found {
		return apperrors.New(apperrors.CodeInvitationAlreadyExists, fmt.Sprintf("nonce %d already used for this invitee", in.Nonce))
	}

	now := tx.Now()
	commitment, err := Commitment(in.Channel, in.Inviter, in.Invitee, in.Nonce, now)
	if err != nil {
		return err
	}
	rec := account.Invitation{
		Channel:    in.Channel,
		Inviter:    in.Inviter,
		Invitee:    in.Invitee,
		Commitment: commitment,
		Nonce:      in.Nonce,
		CreatedAt:  now,
		ExpiresAt:  now.Add(Expiry),
		Bump:       bump,
	}
	if err := tx.Put(in.Invitation, rec); err != nil {
		return err
	}
	return tx.Emit(event.Draft{
		Type:    event.TypeInvitationCreated,
		Address: in.Invitation,
		Payload: event.InvitationCreatedPayload{
			Invitation: in.Invitation,
			Channel:    in.Channel,
			Inviter:    in.Inviter,
			Invitee:    in.Invitee,
			ExpiresAt:  rec.ExpiresAt,
			Timestamp:  now,
		},
	})
}

// Redeem marks the invitation accepted and used after checking, in order:
// channel, claimant, prior use, expiry, address derivation and commitment.
func Redeem(tx account.Tx, in RedeemInput) error {
	inv := in.Invitation
	if inv == nil {
		return apperrors.New(apperrors.CodeInvitationRequired, "invitation record is required")
	}
	if inv.Channel != in.Channel {
		return apperrors.New(apperrors.CodeInvitationChannelMismatch, "invitation is for a different channel")
	}
	if inv.Invitee != in.Claimant {
		return apperrors.New(apperrors.CodeInvitationInviteeMismatch, "invitation was issued to another identity")
	}
	if inv.Used || inv.Accepted {
		return apperrors.New(apperrors.CodeInvitationAlreadyUsed, "invitation already redeemed")
	}
	if tx.Now().After(inv.ExpiresAt) {
		return apperrors.New(apperrors.CodeInvitationExpired, fmt.Sprintf("invitation expired at %s", inv.ExpiresAt.Format(time.RFC3339)))
	}
	expected, _, err := account.InvitationAddress(tx.Deriver(), inv.Channel, inv.Invitee, inv.Nonce)
	if err != nil {
		return err
	}
	if expected != in.Address {
		return apperrors.New(apperrors.CodeInvitationAddressMismatch, "invitation address does not derive from its fields")
	}
	commitment, err := Commitment(inv.Channel, inv.Inviter, inv.Invitee, inv.Nonce, inv.CreatedAt)
	if err != nil {
		return err
	}
	if !securebuf.Equal(commitment[:], inv.Commitment[:]) {
		return apperrors.New(apperrors.CodeInvitationCommitmentMismatch, "invitation commitment does not verify")
	}

	inv.Accepted = true
	inv.Used = true
	return tx.Put(in.Address, *inv)
}

func authorizeInviter(tx account.Tx, channelAddr address.Address, ch account.Channel, inviter address.Address) error {
	if ch.Creator == inviter {
		return nil
	}
	participantAddr, _, err := account.ParticipantAddress(tx.Deriver(), channelAddr, inviter)
	if err != nil {
		return err
	}
	var p account.Participant
	found, err := tx.Get(participantAddr, &p)
	if err != nil {
		return err
	}
	if !found || !p.Active || p.Channel != channelAddr || p.Identity != inviter {
		return apperrors.New(apperrors.CodeInvitationInviterUnauthorized, "inviter is neither creator nor active participant")
	}
	return nil
}
