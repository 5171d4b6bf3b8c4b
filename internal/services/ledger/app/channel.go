package app

import (
	"context"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/channel"
	"github.com/louisbranch/podcom/internal/services/ledger/engine"
)

// CreateChannelInput creates a channel owned by the signer's identity.
type CreateChannelInput struct {
	Signer          address.Address
	Creator         address.Address
	Channel         address.Address
	Participant     address.Address
	Name            string
	Description     string
	Visibility      account.Visibility
	MaxParticipants uint32
	FeePerMessage   uint64
}

// CreateChannel creates a channel and enrolls its creator. It returns the
// channel address.
func (s *Service) CreateChannel(ctx context.Context, in CreateChannelInput) (address.Address, engine.Receipt, error) {
	return s.createChannel(ctx, "create_channel", in, false)
}

// CreateGatedChannel is CreateChannel for creators that must meet the
// minimum reputation.
func (s *Service) CreateGatedChannel(ctx context.Context, in CreateChannelInput) (address.Address, engine.Receipt, error) {
	return s.createChannel(ctx, "create_channel_v2", in, true)
}

func (s *Service) createChannel(ctx context.Context, name string, in CreateChannelInput, gated bool) (address.Address, engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	creator, err := s.callerIdentity(in.Signer, in.Creator)
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	ch, err := orDerived(in.Channel, func() (address.Address, uint8, error) {
		return account.ChannelAddress(s.deriver(), creator, in.Name)
	})
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	participant, err := orDerived(in.Participant, func() (address.Address, uint8, error) {
		return account.ParticipantAddress(s.deriver(), ch, creator)
	})
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	receipt, err := s.run(ctx, name, in.Signer, func(tx account.Tx) error {
		return channel.Create(tx, channel.CreateInput{
			Creator:         creator,
			Channel:         ch,
			Participant:     participant,
			Name:            in.Name,
			Description:     in.Description,
			Visibility:      in.Visibility,
			MaxParticipants: in.MaxParticipants,
			FeePerMessage:   in.FeePerMessage,
			Gated:           gated,
		})
	}, engine.ReadOnly(creator), engine.Writable(ch), engine.Writable(participant))
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	return ch, receipt, nil
}

// UpdateChannelInput edits channel settings. Nil fields are left unchanged.
type UpdateChannelInput struct {
	Signer          address.Address
	Creator         address.Address
	Channel         address.Address
	Name            *string
	Description     *string
	Visibility      *account.Visibility
	MaxParticipants *uint32
	FeePerMessage   *uint64
	Active          *bool
}

// UpdateChannel applies creator edits to a channel.
func (s *Service) UpdateChannel(ctx context.Context, in UpdateChannelInput) (engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return engine.Receipt{}, err
	}
	if err := requireRef(in.Channel, "channel"); err != nil {
		return engine.Receipt{}, err
	}
	creator, err := s.callerIdentity(in.Signer, in.Creator)
	if err != nil {
		return engine.Receipt{}, err
	}
	return s.run(ctx, "update_channel", in.Signer, func(tx account.Tx) error {
		return channel.UpdateSettings(tx, channel.UpdateInput{
			Channel:         in.Channel,
			Creator:         creator,
			Name:            in.Name,
			Description:     in.Description,
			Visibility:      in.Visibility,
			MaxParticipants: in.MaxParticipants,
			FeePerMessage:   in.FeePerMessage,
			Active:          in.Active,
		})
	}, engine.ReadOnly(creator), engine.Writable(in.Channel))
}

// JoinChannelInput enrolls the signer's identity. Escrow defaults to the
// signer's escrow for the channel. Invitation defaults to the one derived
// from InvitationNonce when a nonce is given.
type JoinChannelInput struct {
	Signer          address.Address
	Identity        address.Address
	Channel         address.Address
	Participant     address.Address
	Escrow          address.Address
	Invitation      address.Address
	InvitationNonce *uint64
}

// JoinChannel enrolls an identity and returns its participant address.
func (s *Service) JoinChannel(ctx context.Context, in JoinChannelInput) (address.Address, engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	if err := requireRef(in.Channel, "channel"); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	member, err := s.callerIdentity(in.Signer, in.Identity)
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	participant, err := orDerived(in.Participant, func() (address.Address, uint8, error) {
		return account.ParticipantAddress(s.deriver(), in.Channel, member)
	})
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	esc, err := orDerived(in.Escrow, func() (address.Address, uint8, error) {
		return account.EscrowAddress(s.deriver(), in.Channel, in.Signer)
	})
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	inv := in.Invitation
	if inv.IsZero() && in.InvitationNonce != nil {
		inv, _, err = account.InvitationAddress(s.deriver(), in.Channel, member, *in.InvitationNonce)
		if err != nil {
			return address.Address{}, engine.Receipt{}, err
		}
	}

	accounts := []engine.AccountMeta{
		engine.ReadOnly(member),
		engine.Writable(in.Channel),
		engine.Writable(participant),
		engine.Writable(esc),
	}
	if !inv.IsZero() {
		accounts = append(accounts, engine.Writable(inv))
	}
	receipt, err := s.run(ctx, "join_channel", in.Signer, func(tx account.Tx) error {
		return channel.Join(tx, channel.JoinInput{
			Channel:     in.Channel,
			Identity:    member,
			Participant: participant,
			Escrow:      esc,
			Invitation:  inv,
		})
	}, accounts...)
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	return participant, receipt, nil
}

// LeaveChannelInput deactivates the signer's membership.
type LeaveChannelInput struct {
	Signer      address.Address
	Identity    address.Address
	Channel     address.Address
	Participant address.Address
}

// LeaveChannel deactivates an active membership.
func (s *Service) LeaveChannel(ctx context.Context, in LeaveChannelInput) (engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return engine.Receipt{}, err
	}
	if err := requireRef(in.Channel, "channel"); err != nil {
		return engine.Receipt{}, err
	}
	member, err := s.callerIdentity(in.Signer, in.Identity)
	if err != nil {
		return engine.Receipt{}, err
	}
	participant, err := orDerived(in.Participant, func() (address.Address, uint8, error) {
		return account.ParticipantAddress(s.deriver(), in.Channel, member)
	})
	if err != nil {
		return engine.Receipt{}, err
	}
	return s.run(ctx, "leave_channel", in.Signer, func(tx account.Tx) error {
		return channel.Leave(tx, channel.LeaveInput{
			Channel:     in.Channel,
			Identity:    member,
			Participant: participant,
		})
	}, engine.ReadOnly(member), engine.Writable(in.Channel), engine.Writable(participant))
}

// ParticipantAddress returns the membership address of identity in channel.
func (s *Service) ParticipantAddress(channelAddr, identityAddr address.Address) (address.Address, error) {
	addr, _, err := account.ParticipantAddress(s.deriver(), channelAddr, identityAddr)
	return addr, err
}
