package app

import (
	"context"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/invitation"
	"github.com/louisbranch/podcom/internal/services/ledger/engine"
)

// InviteInput invites Invitee to a channel on behalf of the signer's identity.
type InviteInput struct {
	Signer     address.Address
	Inviter    address.Address
	Channel    address.Address
	Invitee    address.Address
	Invitation address.Address
	Nonce      uint64
}

// InviteToChannel records a single-use invitation and returns its address.
func (s *Service) InviteToChannel(ctx context.Context, in InviteInput) (address.Address, engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	if err := requireRef(in.Channel, "channel"); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	if err := requireRef(in.Invitee, "invitee"); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	inviter, err := s.callerIdentity(in.Signer, in.Inviter)
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	inv, err := orDerived(in.Invitation, func() (address.Address, uint8, error) {
		return account.InvitationAddress(s.deriver(), in.Channel, in.Invitee, in.Nonce)
	})
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	// Non-creator inviters are authorized by their own membership record.
	membership, _, err := account.ParticipantAddress(s.deriver(), in.Channel, inviter)
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	receipt, err := s.run(ctx, "invite_to_channel", in.Signer, func(tx account.Tx) error {
		return invitation.Create(tx, invitation.CreateInput{
			Channel:    in.Channel,
			Inviter:    inviter,
			Invitee:    in.Invitee,
			Invitation: inv,
			Nonce:      in.Nonce,
		})
	},
		engine.ReadOnly(inviter),
		engine.ReadOnly(in.Channel),
		engine.ReadOnly(membership),
		engine.ReadOnly(in.Invitee),
		engine.Writable(inv),
	)
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	return inv, receipt, nil
}
