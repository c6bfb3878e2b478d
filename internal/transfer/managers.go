package transfer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// SingleUnitManager moves assets on single-unit collections (one owner per
// token id). The amount argument is ignored, matching single-unit
// semantics.
type SingleUnitManager struct{}

// NewSingleUnitManager creates a SingleUnitManager.
func NewSingleUnitManager() *SingleUnitManager {
	return &SingleUnitManager{}
}

// Transfer moves tokenID from one owner to another. Any rejection by the
// underlying collection (wrong owner, nonexistent token, paused asset)
// surfaces as domain.ErrTransferFailed.
func (m *SingleUnitManager) Transfer(ctx context.Context, collection domain.Collection, from, to common.Address, tokenID, amount *big.Int) error {
	ledger, ok := collection.(domain.SingleAssetLedger)
	if !ok {
		return domain.ErrUnsupportedCollection
	}
	if err := ledger.TransferUnit(ctx, from, to, tokenID); err != nil {
		return fmt.Errorf("%w: %s token %s: %v", domain.ErrTransferFailed, collection.Address(), tokenID, err)
	}
	return nil
}

// AmountManager moves assets on amount-bearing collections.
type AmountManager struct{}

// NewAmountManager creates an AmountManager.
func NewAmountManager() *AmountManager {
	return &AmountManager{}
}

// Transfer moves amount units of tokenID between parties.
func (m *AmountManager) Transfer(ctx context.Context, collection domain.Collection, from, to common.Address, tokenID, amount *big.Int) error {
	ledger, ok := collection.(domain.AmountAssetLedger)
	if !ok {
		return domain.ErrUnsupportedCollection
	}
	if err := ledger.TransferAmount(ctx, from, to, tokenID, amount); err != nil {
		return fmt.Errorf("%w: %s token %s: %v", domain.ErrTransferFailed, collection.Address(), tokenID, err)
	}
	return nil
}

// Compile-time interface checks.
var (
	_ Manager = (*SingleUnitManager)(nil)
	_ Manager = (*AmountManager)(nil)
)
