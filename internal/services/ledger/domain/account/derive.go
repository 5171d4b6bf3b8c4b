package account

import "github.com/louisbranch/podcom/internal/services/ledger/domain/address"

// IdentityAddress derives ("agent", owner).
func IdentityAddress(d address.Deriver, owner address.Address) (address.Address, uint8, error) {
	return d.Derive(address.TagAgent, owner[:])
}

// DirectMessageAddress derives ("message", sender, recipient, payload hash, type).
func DirectMessageAddress(d address.Deriver, sender, recipient address.Address, payloadHash [32]byte, mt MessageType) (address.Address, uint8, error) {
	return d.Derive(address.TagMessage, sender[:], recipient[:], payloadHash[:], mt.Seed())
}

// ChannelAddress derives ("channel", creator identity, name seed).
func ChannelAddress(d address.Deriver, creator address.Address, name string) (address.Address, uint8, error) {
	return d.Derive(address.TagChannel, creator[:], address.NameSeed(name))
}

// ParticipantAddress derives ("participant", channel, identity).
func ParticipantAddress(d address.Deriver, channel, identity address.Address) (address.Address, uint8, error) {
	return d.Derive(address.TagParticipant, channel[:], identity[:])
}

// InvitationAddress derives ("invitation", channel, invitee identity, nonce).
func InvitationAddress(d address.Deriver, channel, invitee address.Address, nonce uint64) (address.Address, uint8, error) {
	return d.Derive(address.TagInvitation, channel[:], invitee[:], address.U64(nonce))
}

// EscrowAddress derives ("escrow", channel, depositor owner key).
func EscrowAddress(d address.Deriver, channel, depositor address.Address) (address.Address, uint8, error) {
	return d.Derive(address.TagEscrow, channel[:], depositor[:])
}

// ChannelMessageAddress derives ("channel_message", channel, sender identity, nonce).
func ChannelMessageAddress(d address.Deriver, channel, sender address.Address, nonce uint64) (address.Address, uint8, error) {
	return d.Derive(address.TagChannelMessage, channel[:], sender[:], address.U64(nonce))
}
