package channel

import (
	"fmt"
	"math"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/escrow"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/identity"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/invitation"
)

// Join enrolls an identity. Fee-charging channels consume one fee from the
// identity owner's escrow; private channels redeem an invitation. Any failure
// aborts the whole join.
func Join(tx account.Tx, in JoinInput) error {
	member, err := identity.Authenticate(tx, in.Identity)
	if err != nil {
		return err
	}
	ch, err := LoadActive(tx, in.Channel)
	if err != nil {
		return err
	}
	if ch.CurrentParticipants >= ch.MaxParticipants {
		return apperrors.New(apperrors.CodeChannelFull, fmt.Sprintf("channel holds %d of %d", ch.CurrentParticipants, ch.MaxParticipants))
	}

	if ch.FeePerMessage > 0 {
		if err := payJoinFee(tx, in, &ch, member); err != nil {
			return err
		}
	}

	if ch.Visibility == account.VisibilityPrivate {
		if in.Invitation.IsZero() {
			return apperrors.New(apperrors.CodeInvitationRequired, "private channel requires an invitation")
		}
		var inv account.Invitation
		found, err := tx.Get(in.Invitation, &inv)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.New(apperrors.CodeInvitationNotFound, fmt.Sprintf("no invitation at %s", in.Invitation))
		}
		if err := invitation.Redeem(tx, invitation.RedeemInput{
			Address:    in.Invitation,
			Invitation: &inv,
			Channel:    in.Channel,
			Claimant:   in.Identity,
		}); err != nil {
			return err
		}
	}

	expected, bump, err := account.ParticipantAddress(tx.Deriver(), in.Channel, in.Identity)
	if err != nil {
		return err
	}
	if expected != in.Participant {
		return apperrors.New(apperrors.CodeParticipantAddressMismatch, "participant address does not derive from channel and identity")
	}
	var existing account.Participant
	found, err := tx.Get(in.Participant, &existing)
	if err != nil {
		return err
	}
	if found {
		return apperrors.New(apperrors.CodeChannelAlreadyJoined, "identity already has a membership record")
	}
	if ch.CurrentParticipants == math.MaxUint32 {
		return apperrors.New(apperrors.CodeChannelFull, "participant count would overflow")
	}
	ch.CurrentParticipants++

	now := tx.Now()
	if err := tx.Put(in.Participant, account.Participant{
		Channel:  in.Channel,
		Identity: in.Identity,
		JoinedAt: now,
		Active:   true,
		Bump:     bump,
	}); err != nil {
		return err
	}
	if err := tx.Put(in.Channel, ch); err != nil {
		return err
	}
	return tx.Emit(event.Draft{
		Type:    event.TypeChannelJoined,
		Address: in.Participant,
		Payload: event.ChannelMembershipPayload{Channel: in.Channel, Participant: in.Identity, Timestamp: now},
	})
}

func payJoinFee(tx account.Tx, in JoinInput, ch *account.Channel, member account.Identity) error {
	if in.Escrow.IsZero() {
		return apperrors.New(apperrors.CodeEscrowRequired, "channel charges a fee; escrow is required")
	}
	var esc account.Escrow
	found, err := tx.Get(in.Escrow, &esc)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.New(apperrors.CodeEscrowRequired, fmt.Sprintf("no escrow at %s", in.Escrow))
	}
	if esc.Depositor != member.Owner {
		return apperrors.New(apperrors.CodeEscrowDepositorMismatch, "escrow was funded by another key")
	}
	return escrow.ConsumeFee(tx, escrow.FeeInput{
		ChannelAddr: in.Channel,
		Channel:     ch,
		EscrowAddr:  in.Escrow,
		Escrow:      &esc,
		Fee:         ch.FeePerMessage,
	})
}

// Leave deactivates an active membership.
func Leave(tx account.Tx, in LeaveInput) error {
	if _, err := identity.Authenticate(tx, in.Identity); err != nil {
		return err
	}
	expected, _, err := account.ParticipantAddress(tx.Deriver(), in.Channel, in.Identity)
	if err != nil {
		return err
	}
	if expected != in.Participant {
		return apperrors.New(apperrors.CodeParticipantAddressMismatch, "participant address does not derive from channel and identity")
	}
	var p account.Participant
	found, err := tx.Get(in.Participant, &p)
	if err != nil {
		return err
	}
	if !found || !p.Active {
		return apperrors.New(apperrors.CodeChannelNotJoined, "identity is not an active participant")
	}
	ch, err := Load(tx, in.Channel)
	if err != nil {
		return err
	}
	if ch.CurrentParticipants == 0 {
		return apperrors.New(apperrors.CodeChannelParticipantUnderflow, "participant count is already zero")
	}
	ch.CurrentParticipants--
	p.Active = false

	if err := tx.Put(in.Participant, p); err != nil {
		return err
	}
	if err := tx.Put(in.Channel, ch); err != nil {
		return err
	}
	return tx.Emit(event.Draft{
		Type:    event.TypeChannelLeft,
		Address: in.Participant,
		Payload: event.ChannelMembershipPayload{Channel: in.Channel, Participant: in.Identity, Timestamp: tx.Now()},
	})
}

// UpdateSettings applies creator edits, re-validating each supplied field
// against the creation bounds.
func UpdateSettings(tx account.Tx, in UpdateInput) error {
	if _, err := identity.Authenticate(tx, in.Creator); err != nil {
		return err
	}
	ch, err := Load(tx, in.Channel)
	if err != nil {
		return err
	}
	if ch.Creator != in.Creator {
		return apperrors.New(apperrors.CodeChannelCreatorMismatch, "only the creator can change settings")
	}
	expected, _, err := account.ChannelAddress(tx.Deriver(), ch.Creator, ch.SeedName)
	if err != nil {
		return err
	}
	if expected != in.Channel {
		return apperrors.New(apperrors.CodeChannelAddressMismatch, "channel address does not derive from creator and name")
	}

	if in.Name != nil {
		name, err := normalizeName(*in.Name)
		if err != nil {
			return err
		}
		ch.Name = name
	}
	if in.Description != nil {
		description, err := normalizeDescription(*in.Description)
		if err != nil {
			return err
		}
		ch.Description = description
	}
	if in.Visibility != nil {
		if err := validateVisibility(*in.Visibility); err != nil {
			return err
		}
		ch.Visibility = *in.Visibility
	}
	if in.MaxParticipants != nil {
		if err := validateMaxParticipants(*in.MaxParticipants); err != nil {
			return err
		}
		if *in.MaxParticipants < ch.CurrentParticipants {
			return apperrors.New(apperrors.CodeChannelMaxBelowCurrent,
				fmt.Sprintf("max %d below current %d", *in.MaxParticipants, ch.CurrentParticipants))
		}
		ch.MaxParticipants = *in.MaxParticipants
	}
	if in.FeePerMessage != nil {
		if err := validateFee(*in.FeePerMessage); err != nil {
			return err
		}
		ch.FeePerMessage = *in.FeePerMessage
	}
	if in.Active != nil {
		ch.Active = *in.Active
	}

	if err := tx.Put(in.Channel, ch); err != nil {
		return err
	}
	return tx.Emit(event.Draft{
		Type:    event.TypeChannelUpdated,
		Address: in.Channel,
		Payload: event.ChannelUpdatedPayload{
			Channel:         in.Channel,
			Name:            ch.Name,
			Visibility:      ch.Visibility.String(),
			MaxParticipants: ch.MaxParticipants,
			FeePerMessage:   ch.FeePerMessage,
			Active:          ch.Active,
			Timestamp:       tx.Now(),
		},
	})
}
