// Package nonce tracks per-signer order cancellation state: a monotonic
// floor below which every nonce is invalid, plus an explicit set of
// individually executed or cancelled nonces above it.
package nonce

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// MaxCancelBatch bounds how far the floor can be raised in one call, which
// in turn bounds the cost of any later validity scan over the gap.
const MaxCancelBatch uint64 = 500_000

type signerState struct {
	minOrderNonce uint64
	used          map[uint64]struct{}
}

// Registry is the authoritative in-memory cancellation state, optionally
// backed by a store for durability. Writes hit the store before the memory
// mutation is acknowledged, so a store failure leaves the registry unchanged.
type Registry struct {
	mu      sync.Mutex
	signers map[common.Address]*signerState
	store   domain.NonceStore // nil for memory-only operation
}

// NewRegistry creates an empty Registry. store may be nil, in which case
// state lives only in memory.
func NewRegistry(store domain.NonceStore) *Registry {
	return &Registry{
		signers: make(map[common.Address]*signerState),
		store:   store,
	}
}

// Load restores all persisted signer state from the store. It replaces any
// in-memory state and is intended to run once at startup.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	snapshots, err := r.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("nonce: load state: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.signers = make(map[common.Address]*signerState, len(snapshots))
	for _, snap := range snapshots {
		st := &signerState{
			minOrderNonce: snap.MinNonce,
			used:          make(map[uint64]struct{}, len(snap.UsedNonces)),
		}
		for _, n := range snap.UsedNonces {
			st.used[n] = struct{}{}
		}
		r.signers[snap.Signer] = st
	}
	return nil
}

func (r *Registry) state(signer common.Address) *signerState {
	st, ok := r.signers[signer]
	if !ok {
		st = &signerState{used: make(map[uint64]struct{})}
		r.signers[signer] = st
	}
	return st
}

// CancelAllOrdersForSender raises the signer's minimum order nonce. Every
// outstanding signed order with nonce below newMinNonce becomes permanently
// invalid. The raise is rejected when it does not move forward
// (ErrNonceTooLow) or jumps further than MaxCancelBatch
// (ErrNonceCeilingExceeded).
func (r *Registry) CancelAllOrdersForSender(ctx context.Context, signer common.Address, newMinNonce uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(signer)
	if newMinNonce <= st.minOrderNonce {
		return domain.ErrNonceTooLow
	}
	if newMinNonce-st.minOrderNonce > MaxCancelBatch {
		return domain.ErrNonceCeilingExceeded
	}

	if r.store != nil {
		if err := r.store.SetMinNonce(ctx, signer, newMinNonce); err != nil {
			return fmt.Errorf("nonce: persist min nonce: %w", err)
		}
	}
	st.minOrderNonce = newMinNonce
	return nil
}

// CancelMultipleMakerOrders marks the listed nonces executed-or-cancelled.
// The call is all-or-nothing: an empty list (ErrEmptyInput) or any nonce
// below the current floor (ErrNonceTooLow) rejects the whole batch with no
// partial application.
func (r *Registry) CancelMultipleMakerOrders(ctx context.Context, signer common.Address, nonces []uint64) error {
	if len(nonces) == 0 {
		return domain.ErrEmptyInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(signer)
	for _, n := range nonces {
		if n < st.minOrderNonce {
			return domain.ErrNonceTooLow
		}
	}

	if r.store != nil {
		if err := r.store.AddUsedNonces(ctx, signer, nonces); err != nil {
			return fmt.Errorf("nonce: persist cancelled nonces: %w", err)
		}
	}
	for _, n := range nonces {
		st.used[n] = struct{}{}
	}
	return nil
}

// IsNonceValid reports whether the nonce is still usable for the signer:
// at or above the floor and not in the executed-or-cancelled set.
func (r *Registry) IsNonceValid(signer common.Address, n uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.signers[signer]
	if !ok {
		return true
	}
	if n < st.minOrderNonce {
		return false
	}
	_, used := st.used[n]
	return !used
}

// MinOrderNonce returns the signer's current floor.
func (r *Registry) MinOrderNonce(signer common.Address) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.signers[signer]; ok {
		return st.minOrderNonce
	}
	return 0
}

// IsExecutedOrCancelled reports membership in the explicit set only; it does
// not consider the floor.
func (r *Registry) IsExecutedOrCancelled(signer common.Address, n uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.signers[signer]
	if !ok {
		return false
	}
	_, used := st.used[n]
	return used
}

// Consume marks a nonce executed after a successful match. It is invoked by
// the matching engine only, inside the same critical section as settlement.
// The ErrNonceAlreadyUsed guard is defense in depth: under the engine's
// per-(signer,nonce) lock a double consume indicates a re-entrant caller.
func (r *Registry) Consume(ctx context.Context, signer common.Address, n uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(signer)
	if _, used := st.used[n]; used {
		return domain.ErrNonceAlreadyUsed
	}

	if r.store != nil {
		if err := r.store.AddUsedNonces(ctx, signer, []uint64{n}); err != nil {
			return fmt.Errorf("nonce: persist consumed nonce: %w", err)
		}
	}
	st.used[n] = struct{}{}
	return nil
}
