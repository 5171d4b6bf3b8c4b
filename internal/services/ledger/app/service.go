// Package app exposes one entry point per ledger operation.
//
// Each method resolves the entity references its caller left empty to their
// canonically derived addresses, declares every account the operation touches
// and runs the domain function through the engine host as one transition.
// Supplied references are never trusted: the domain re-derives them.
package app

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/engine"
)

// Service runs ledger operations against a host.
type Service struct {
	host *engine.Host
}

// New returns a service bound to host.
func New(host *engine.Host) (*Service, error) {
	if host == nil {
		return nil, errors.New("host is required")
	}
	return &Service{host: host}, nil
}

func (s *Service) deriver() address.Deriver {
	return s.host.Deriver()
}

// IdentityAddress returns the identity address owned by key.
func (s *Service) IdentityAddress(key address.Address) (address.Address, error) {
	addr, _, err := account.IdentityAddress(s.deriver(), key)
	return addr, err
}

// orDerived returns ref unless it is zero, in which case it derives one.
func orDerived(ref address.Address, derive func() (address.Address, uint8, error)) (address.Address, error) {
	if !ref.IsZero() {
		return ref, nil
	}
	addr, _, err := derive()
	return addr, err
}

// callerIdentity resolves the identity acting for signer.
func (s *Service) callerIdentity(signer, ref address.Address) (address.Address, error) {
	return orDerived(ref, func() (address.Address, uint8, error) {
		return account.IdentityAddress(s.deriver(), signer)
	})
}

func requireSigner(signer address.Address) error {
	if signer.IsZero() {
		return apperrors.New(apperrors.CodeInstructionInvalid, "signer key is required")
	}
	return nil
}

func requireRef(ref address.Address, name string) error {
	if ref.IsZero() {
		return apperrors.New(apperrors.CodeInstructionInvalid, name+" address is required")
	}
	return nil
}

func (s *Service) run(ctx context.Context, name string, signer address.Address, run func(account.Tx) error, accounts ...engine.AccountMeta) (engine.Receipt, error) {
	return s.host.Execute(ctx, engine.Instruction{
		Name:     name,
		Signer:   signer,
		Accounts: accounts,
		Run:      run,
	})
}

// Identity loads the identity at addr.
func (s *Service) Identity(ctx context.Context, addr address.Address) (account.Identity, bool, error) {
	var rec account.Identity
	found, err := s.host.Load(ctx, addr, &rec)
	return rec, found, err
}

// Channel loads the channel at addr.
func (s *Service) Channel(ctx context.Context, addr address.Address) (account.Channel, bool, error) {
	var rec account.Channel
	found, err := s.host.Load(ctx, addr, &rec)
	return rec, found, err
}

// Participant loads the participant at addr.
func (s *Service) Participant(ctx context.Context, addr address.Address) (account.Participant, bool, error) {
	var rec account.Participant
	found, err := s.host.Load(ctx, addr, &rec)
	return rec, found, err
}

// Escrow loads the escrow at addr.
func (s *Service) Escrow(ctx context.Context, addr address.Address) (account.Escrow, bool, error) {
	var rec account.Escrow
	found, err := s.host.Load(ctx, addr, &rec)
	return rec, found, err
}

// Invitation loads the invitation at addr.
func (s *Service) Invitation(ctx context.Context, addr address.Address) (account.Invitation, bool, error) {
	var rec account.Invitation
	found, err := s.host.Load(ctx, addr, &rec)
	return rec, found, err
}

// DirectMessage loads the direct message at addr.
func (s *Service) DirectMessage(ctx context.Context, addr address.Address) (account.DirectMessage, bool, error) {
	var rec account.DirectMessage
	found, err := s.host.Load(ctx, addr, &rec)
	return rec, found, err
}

// ChannelMessage loads the channel message at addr.
func (s *Service) ChannelMessage(ctx context.Context, addr address.Address) (account.ChannelMessage, bool, error) {
	var rec account.ChannelMessage
	found, err := s.host.Load(ctx, addr, &rec)
	return rec, found, err
}

// Balance returns the committed lamports held at addr.
func (s *Service) Balance(ctx context.Context, addr address.Address) (uint64, error) {
	return s.host.Balance(ctx, addr)
}
