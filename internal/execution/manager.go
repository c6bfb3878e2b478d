// Package execution maintains the whitelist of matching strategies the
// exchange will dispatch to, keyed by strategy address.
package execution

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
	"github.com/arcmarket/arcx/internal/strategy"
)

// Manager is a thread-safe strategy whitelist. Each entry carries the
// strategy instance itself, so resolving an address yields both the
// whitelisting verdict and the policy to dispatch.
type Manager struct {
	mu         sync.RWMutex
	strategies map[common.Address]strategy.Strategy
}

// NewManager creates an empty whitelist.
func NewManager() *Manager {
	return &Manager{strategies: make(map[common.Address]strategy.Strategy)}
}

// Add whitelists a strategy under its own address.
func (m *Manager) Add(s strategy.Strategy) error {
	if s.Address() == (common.Address{}) {
		return domain.ErrZeroAddress
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategies[s.Address()] = s
	return nil
}

// Remove delists a strategy. Removing an unknown strategy returns
// domain.ErrNotFound.
func (m *Manager) Remove(addr common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.strategies[addr]; !ok {
		return domain.ErrNotFound
	}
	delete(m.strategies, addr)
	return nil
}

// IsWhitelisted reports whether the strategy address is accepted.
func (m *Manager) IsWhitelisted(addr common.Address) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.strategies[addr]
	return ok
}

// Strategy resolves a whitelisted strategy by address.
func (m *Manager) Strategy(addr common.Address) (strategy.Strategy, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.strategies[addr]
	return s, ok
}

// List returns the whitelisted strategy addresses in deterministic order.
func (m *Manager) List() []common.Address {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]common.Address, 0, len(m.strategies))
	for addr := range m.strategies {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Cmp(out[j]) < 0
	})
	return out
}
