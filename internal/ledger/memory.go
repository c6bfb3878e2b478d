// Package ledger provides an in-memory reference implementation of the
// external ledger collaborators the exchange settles against: native
// balances, fungible settlement currencies, a wrapped-native token, and
// single-unit and amount-bearing asset collections.
//
// Production deployments substitute adapters to a real ledger; this package
// backs local mode and the engine tests. The exchange is treated as a
// trusted operator, so transfers check balances and ownership but not
// per-operator approvals.
package ledger

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// Set is a registry of in-memory currencies and collections sharing one
// native balance table. It implements both resolver interfaces consumed by
// the exchange.
type Set struct {
	mu          sync.RWMutex
	native      *Native
	currencies  map[common.Address]domain.FungibleLedger
	collections map[common.Address]domain.Collection
}

// NewSet creates an empty ledger set with a fresh native balance table.
func NewSet() *Set {
	return &Set{
		native:      NewNative(),
		currencies:  make(map[common.Address]domain.FungibleLedger),
		collections: make(map[common.Address]domain.Collection),
	}
}

// Native returns the shared native balance table.
func (s *Set) Native() *Native {
	return s.native
}

// CreateToken registers a new fungible currency at the given address.
func (s *Set) CreateToken(addr common.Address) *Token {
	t := NewToken(addr)
	s.mu.Lock()
	s.currencies[addr] = t
	s.mu.Unlock()
	return t
}

// CreateWrappedNative registers a wrapped-native currency backed by the
// set's native balance table.
func (s *Set) CreateWrappedNative(addr common.Address) *WrappedToken {
	w := NewWrappedToken(addr, s.native)
	s.mu.Lock()
	s.currencies[addr] = w
	s.mu.Unlock()
	return w
}

// CreateUnitCollection registers a single-unit collection.
func (s *Set) CreateUnitCollection(addr common.Address) *UnitCollection {
	c := NewUnitCollection(addr)
	s.mu.Lock()
	s.collections[addr] = c
	s.mu.Unlock()
	return c
}

// CreateAmountCollection registers an amount-bearing collection.
func (s *Set) CreateAmountCollection(addr common.Address) *AmountCollection {
	c := NewAmountCollection(addr)
	s.mu.Lock()
	s.collections[addr] = c
	s.mu.Unlock()
	return c
}

// RegisterCollection adds an externally constructed collection handle.
func (s *Set) RegisterCollection(c domain.Collection) {
	s.mu.Lock()
	s.collections[c.Address()] = c
	s.mu.Unlock()
}

// Currency resolves a fungible ledger handle by address.
func (s *Set) Currency(addr common.Address) (domain.FungibleLedger, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.currencies[addr]
	return c, ok
}

// Collection resolves a collection handle by address.
func (s *Set) Collection(addr common.Address) (domain.Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[addr]
	return c, ok
}

// Compile-time interface checks.
var (
	_ domain.CurrencyResolver   = (*Set)(nil)
	_ domain.CollectionResolver = (*Set)(nil)
)
