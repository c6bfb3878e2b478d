// Package royalty computes the creator royalty split for a sale: a
// registry of per-collection policies bounded by a protocol-wide ceiling,
// and a manager that falls back to the collection's own royalty capability
// when no policy is registered.
package royalty

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// DefaultFeeCeilingBps is the default registry ceiling (95%).
const DefaultFeeCeilingBps uint16 = 9500

// Registry stores per-collection royalty policies. The ceiling is enforced
// at registration time, not at query time, so a misconfigured fee fails
// fast instead of surfacing during settlement.
type Registry struct {
	mu      sync.RWMutex
	ceiling uint16
	infos   map[common.Address]domain.RoyaltyInfo
	store   domain.RoyaltyStore // nil for memory-only operation
}

// NewRegistry creates a Registry with the given fee ceiling in basis points.
// store may be nil.
func NewRegistry(ceilingBps uint16, store domain.RoyaltyStore) *Registry {
	return &Registry{
		ceiling: ceilingBps,
		infos:   make(map[common.Address]domain.RoyaltyInfo),
		store:   store,
	}
}

// Load restores persisted royalty policies. Intended to run once at startup.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	infos, err := r.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("royalty: load registry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = make(map[common.Address]domain.RoyaltyInfo, len(infos))
	for _, info := range infos {
		r.infos[info.Collection] = info
	}
	return nil
}

// FeeCeilingBps returns the registry ceiling.
func (r *Registry) FeeCeilingBps() uint16 {
	return r.ceiling
}

// UpdateRoyaltyInfoForCollection registers or replaces the royalty policy
// for a collection. Fees above the ceiling are rejected with
// domain.ErrRoyaltyFeeTooHigh.
func (r *Registry) UpdateRoyaltyInfoForCollection(ctx context.Context, info domain.RoyaltyInfo) error {
	if info.Collection == (common.Address{}) || info.Receiver == (common.Address{}) {
		return domain.ErrZeroAddress
	}
	if info.FeeBps > r.ceiling {
		return domain.ErrRoyaltyFeeTooHigh
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Upsert(ctx, info); err != nil {
			return fmt.Errorf("royalty: persist policy: %w", err)
		}
	}
	r.infos[info.Collection] = info
	return nil
}

// RoyaltyInfo returns the registered policy for a collection.
func (r *Registry) RoyaltyInfo(collection common.Address) (domain.RoyaltyInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.infos[collection]
	return info, ok
}
