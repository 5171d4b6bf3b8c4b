// Package channel creates channels and manages membership. Join composes the
// escrow and invitation components; the host makes the whole join atomic.
package channel

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/identity"
)

const (
	MaxNameLen        = 50
	MaxDescriptionLen = 200
	MaxParticipants   = 1000
	// MaxFeePerMessage is the fee ceiling in lamports.
	MaxFeePerMessage uint64 = 1_000_000_000
	// MinCreatorReputation gates the reputation-checked create path.
	MinCreatorReputation uint64 = 50
)

// CreateInput creates a channel owned by the Creator identity. Gated selects
// the reputation-checked path.
type CreateInput struct {
	Creator         address.Address
	Channel         address.Address
	Participant     address.Address
	Name            string
	Description     string
	Visibility      account.Visibility
	MaxParticipants uint32
	FeePerMessage   uint64
	Gated           bool
}

// JoinInput adds Identity to Channel. Escrow and Invitation are zero when the
// caller supplies none.
type JoinInput struct {
	Channel     address.Address
	Identity    address.Address
	Participant address.Address
	Escrow      address.Address
	Invitation  address.Address
}

// LeaveInput soft-closes the Identity's membership.
type LeaveInput struct {
	Channel     address.Address
	Identity    address.Address
	Participant address.Address
}

// UpdateInput edits channel settings. Nil fields are left unchanged.
type UpdateInput struct {
	Channel         address.Address
	Creator         address.Address
	Name            *string
	Description     *string
	Visibility      *account.Visibility
	MaxParticipants *uint32
	FeePerMessage   *uint64
	Active          *bool
}

// Create validates the settings, stores the channel and enrolls the creator.
func Create(tx account.Tx, in CreateInput) error {
	creator, err := identity.Authenticate(tx, in.Creator)
	if err != nil {
		return err
	}
	name, err := normalizeName(in.Name)
	if err != nil {
		return err
	}
	description, err := normalizeDescription(in.Description)
	if err != nil {
		return err
	}
	if err := validateMaxParticipants(in.MaxParticipants); err != nil {
		return err
	}
	if err := validateFee(in.FeePerMessage); err != nil {
		return err
	}
	if err := validateVisibility(in.Visibility); err != nil {
		return err
	}
	if in.Gated && creator.Reputation < MinCreatorReputation {
		return apperrors.WithMetadata(apperrors.CodeIdentityInsufficientReputation,
			fmt.Sprintf("reputation %d below %d", creator.Reputation, MinCreatorReputation),
			map[string]string{"Minimum": fmt.Sprint(MinCreatorReputation)})
	}

	d := tx.Deriver()
	expected, bump, err := account.ChannelAddress(d, in.Creator, name)
	if err != nil {
		return err
	}
	if expected != in.Channel {
		return apperrors.New(apperrors.CodeChannelAddressMismatch, "channel address does not derive from creator and name")
	}
	var existing account.Channel
	found, err := tx.Get(in.Channel, &existing)
	if err != nil {
		return err
	}
	if found {
		return apperrors.New(apperrors.CodeChannelAlreadyExists, fmt.Sprintf("channel %q already exists", name))
	}

	participantAddr, participantBump, err := account.ParticipantAddress(d, in.Channel, in.Creator)
	if err != nil {
		return err
	}
	if participantAddr != in.Participant {
		return apperrors.New(apperrors.CodeParticipantAddressMismatch, "participant address does not derive from channel and creator")
	}

	now := tx.Now()
	ch := account.Channel{
		Creator:             in.Creator,
		SeedName:            name,
		Name:                name,
		Description:         description,
		Visibility:          in.Visibility,
		MaxParticipants:     in.MaxParticipants,
		CurrentParticipants: 1,
		FeePerMessage:       in.FeePerMessage,
		CreatedAt:           now,
		Active:              true,
		Bump:                bump,
	}
	if err := tx.Put(in.Channel, ch); err != nil {
		return err
	}
	if err := tx.Put(in.Participant, account.Participant{
		Channel:  in.Channel,
		Identity: in.Creator,
		JoinedAt: now,
		Active:   true,
		Bump:     participantBump,
	}); err != nil {
		return err
	}
	return tx.Emit(event.Draft{
		Type:    event.TypeChannelCreated,
		Address: in.Channel,
		Payload: event.ChannelCreatedPayload{
			Channel:    in.Channel,
			Creator:    in.Creator,
			Name:       name,
			Visibility: in.Visibility.String(),
			Gated:      in.Gated,
			Timestamp:  now,
		},
	})
}

// Load fetches a channel, failing when none is stored at addr.
func Load(tx account.Tx, addr address.Address) (account.Channel, error) {
	var ch account.Channel
	found, err := tx.Get(addr, &ch)
	if err != nil {
		return account.Channel{}, err
	}
	if !found {
		return account.Channel{}, apperrors.New(apperrors.CodeChannelNotFound, fmt.Sprintf("no channel at %s", addr))
	}
	return ch, nil
}

// LoadActive is Load plus the active-channel check.
func LoadActive(tx account.Tx, addr address.Address) (account.Channel, error) {
	ch, err := Load(tx, addr)
	if err != nil {
		return account.Channel{}, err
	}
	if !ch.Active {
		return account.Channel{}, apperrors.New(apperrors.CodeChannelInactive, "channel is inactive")
	}
	return ch, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperrors.New(apperrors.CodeChannelNameEmpty, "channel name is required")
	}
	if len(name) > MaxNameLen {
		return "", apperrors.WithMetadata(apperrors.CodeChannelNameTooLong,
			fmt.Sprintf("channel name is %d bytes", len(name)),
			map[string]string{"Limit": fmt.Sprint(MaxNameLen)})
	}
	return name, nil
}

func normalizeDescription(raw string) (string, error) {
	description := strings.TrimSpace(raw)
	if description == "" {
		return "", apperrors.New(apperrors.CodeChannelDescriptionEmpty, "channel description is required")
	}
	if len(description) > MaxDescriptionLen {
		return "", apperrors.WithMetadata(apperrors.CodeChannelDescriptionTooLong,
			fmt.Sprintf("channel description is %d bytes", len(description)),
			map[string]string{"Limit": fmt.Sprint(MaxDescriptionLen)})
	}
	return description, nil
}

func validateMaxParticipants(n uint32) error {
	if n == 0 || n > MaxParticipants {
		return apperrors.WithMetadata(apperrors.CodeChannelMaxParticipantsInvalid,
			fmt.Sprintf("max participants %d outside 1..%d", n, MaxParticipants),
			map[string]string{"Limit": fmt.Sprint(MaxParticipants)})
	}
	return nil
}

func validateFee(fee uint64) error {
	if fee > MaxFeePerMessage {
		return apperrors.New(apperrors.CodeChannelFeeTooHigh, fmt.Sprintf("fee %d exceeds %d", fee, MaxFeePerMessage))
	}
	return nil
}

func validateVisibility(v account.Visibility) error {
	if !v.Valid() {
		return apperrors.New(apperrors.CodeChannelVisibilityInvalid, fmt.Sprintf("unknown visibility %d", v))
	}
	return nil
}
