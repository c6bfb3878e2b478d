// Package transfer dispatches asset movement to the manager matching the
// collection's capability: single-unit ownership (one owner per token id)
// or amount-bearing balances.
package transfer

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// Manager moves an asset between parties. Implementations reject
// collections whose capability they do not serve.
type Manager interface {
	// Transfer moves tokenID (amount units where applicable) of the
	// collection from one party to another.
	Transfer(ctx context.Context, collection domain.Collection, from, to common.Address, tokenID, amount *big.Int) error
}

// Selector resolves the transfer manager for a collection by probing its
// capability interfaces. Manual overrides take precedence over probing so
// that non-conforming collections can still be served.
type Selector struct {
	mu        sync.RWMutex
	single    Manager
	amount    Manager
	overrides map[common.Address]Manager
	resolver  domain.CollectionResolver
}

// NewSelector creates a Selector with the two standard managers and the
// collection resolver used for capability probing.
func NewSelector(single, amount Manager, resolver domain.CollectionResolver) *Selector {
	return &Selector{
		single:    single,
		amount:    amount,
		overrides: make(map[common.Address]Manager),
		resolver:  resolver,
	}
}

// AddOverride pins a collection to a specific manager, bypassing probing.
func (s *Selector) AddOverride(collection common.Address, m Manager) error {
	if collection == (common.Address{}) {
		return domain.ErrZeroAddress
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[collection] = m
	return nil
}

// RemoveOverride drops a manual override.
func (s *Selector) RemoveOverride(collection common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overrides[collection]; !ok {
		return domain.ErrNotFound
	}
	delete(s.overrides, collection)
	return nil
}

// Resolve returns the collection handle and the manager that can move its
// assets. Single-unit capability is probed before amount-bearing, mirroring
// the 721-before-1155 probe order of the original selector. It fails with
// domain.ErrUnsupportedCollection when the collection is unknown or exposes
// neither capability and has no override.
func (s *Selector) Resolve(collection common.Address) (domain.Collection, Manager, error) {
	handle, ok := s.resolver.Collection(collection)
	if !ok {
		return nil, nil, domain.ErrUnsupportedCollection
	}

	s.mu.RLock()
	override, hasOverride := s.overrides[collection]
	s.mu.RUnlock()
	if hasOverride {
		return handle, override, nil
	}

	if _, ok := handle.(domain.SingleAssetLedger); ok {
		return handle, s.single, nil
	}
	if _, ok := handle.(domain.AmountAssetLedger); ok {
		return handle, s.amount, nil
	}
	return nil, nil, domain.ErrUnsupportedCollection
}
