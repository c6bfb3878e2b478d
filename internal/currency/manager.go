// Package currency maintains the whitelist of settlement currencies the
// exchange will settle in. Mutation is owner-gated at the API layer.
package currency

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// Manager is a thread-safe currency whitelist.
type Manager struct {
	mu         sync.RWMutex
	currencies map[common.Address]struct{}
}

// NewManager creates an empty whitelist.
func NewManager() *Manager {
	return &Manager{currencies: make(map[common.Address]struct{})}
}

// Add whitelists a currency. The zero address is rejected; re-adding an
// existing currency is a no-op.
func (m *Manager) Add(addr common.Address) error {
	if addr == (common.Address{}) {
		return domain.ErrZeroAddress
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currencies[addr] = struct{}{}
	return nil
}

// Remove delists a currency. Removing an unknown currency returns
// domain.ErrNotFound.
func (m *Manager) Remove(addr common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.currencies[addr]; !ok {
		return domain.ErrNotFound
	}
	delete(m.currencies, addr)
	return nil
}

// IsWhitelisted reports whether the currency is accepted for settlement.
func (m *Manager) IsWhitelisted(addr common.Address) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.currencies[addr]
	return ok
}

// List returns the whitelisted currencies in deterministic order.
func (m *Manager) List() []common.Address {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]common.Address, 0, len(m.currencies))
	for addr := range m.currencies {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Cmp(out[j]) < 0
	})
	return out
}
