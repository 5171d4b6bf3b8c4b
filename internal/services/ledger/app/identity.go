package app

import (
	"context"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/identity"
	"github.com/louisbranch/podcom/internal/services/ledger/engine"
)

// RegisterAgentInput registers the signer's identity.
type RegisterAgentInput struct {
	Signer       address.Address
	Identity     address.Address
	Capabilities uint64
	MetadataURI  string
}

// RegisterAgent creates the identity owned by the signer and returns its address.
func (s *Service) RegisterAgent(ctx context.Context, in RegisterAgentInput) (address.Address, engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	agent, err := s.callerIdentity(in.Signer, in.Identity)
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	receipt, err := s.run(ctx, "register_agent", in.Signer, func(tx account.Tx) error {
		return identity.Register(tx, identity.RegisterInput{
			Identity:     agent,
			Capabilities: in.Capabilities,
			MetadataURI:  in.MetadataURI,
		})
	}, engine.Writable(agent))
	if err != nil {
		return address.Address{}, engine.Receipt{}, err
	}
	return agent, receipt, nil
}

// UpdateAgentInput edits the signer's identity. Nil fields are left unchanged.
type UpdateAgentInput struct {
	Signer       address.Address
	Identity     address.Address
	Capabilities *uint64
	MetadataURI  *string
}

// UpdateAgent applies owner edits to an identity.
func (s *Service) UpdateAgent(ctx context.Context, in UpdateAgentInput) (engine.Receipt, error) {
	if err := requireSigner(in.Signer); err != nil {
		return engine.Receipt{}, err
	}
	agent, err := s.callerIdentity(in.Signer, in.Identity)
	if err != nil {
		return engine.Receipt{}, err
	}
	return s.run(ctx, "update_agent", in.Signer, func(tx account.Tx) error {
		return identity.Update(tx, identity.UpdateInput{
			Identity:     agent,
			Capabilities: in.Capabilities,
			MetadataURI:  in.MetadataURI,
		})
	}, engine.Writable(agent))
}
