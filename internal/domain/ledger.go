package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Collaborator capability interfaces. Asset collections and settlement
// currencies live on an external ledger; the exchange only sees them through
// these handles, resolved by address via the injected registries. The engine
// never holds a global mutable registry of its own.

// FungibleLedger is a settlement currency: balance, allowance-free transfer
// initiated by the exchange acting as operator. Implementations must reject
// transfers that exceed the sender's balance.
type FungibleLedger interface {
	Address() common.Address
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
}

// WrappedNativeLedger is a fungible currency backed 1:1 by the native asset.
// Deposit moves native balance into wrapped credit; Withdraw is the inverse.
type WrappedNativeLedger interface {
	FungibleLedger
	Deposit(ctx context.Context, to common.Address, amount *big.Int) error
	Withdraw(ctx context.Context, from common.Address, amount *big.Int) error
}

// Collection is the minimal handle for an asset collection. Concrete
// collections additionally implement SingleAssetLedger or AmountAssetLedger
// (or both); the transfer selector probes for those capabilities.
type Collection interface {
	Address() common.Address
}

// SingleAssetLedger is a collection where each token id has exactly one
// owner (ERC-721 shaped).
type SingleAssetLedger interface {
	Collection
	OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error)
	TransferUnit(ctx context.Context, from, to common.Address, tokenID *big.Int) error
}

// AmountAssetLedger is a collection where token ids carry fungible balances
// (ERC-1155 shaped).
type AmountAssetLedger interface {
	Collection
	BalanceOf(ctx context.Context, owner common.Address, tokenID *big.Int) (*big.Int, error)
	TransferAmount(ctx context.Context, from, to common.Address, tokenID, amount *big.Int) error
}

// RoyaltyInfoProvider is the optional on-asset royalty capability (ERC-2981
// shaped). The royalty fee manager probes for it when the registry has no
// entry for a collection.
type RoyaltyInfoProvider interface {
	RoyaltyInfo(ctx context.Context, tokenID, salePrice *big.Int) (common.Address, *big.Int, error)
}

// CurrencyResolver maps a currency address to its ledger handle.
type CurrencyResolver interface {
	Currency(addr common.Address) (FungibleLedger, bool)
}

// CollectionResolver maps a collection address to its handle.
type CollectionResolver interface {
	Collection(addr common.Address) (Collection, bool)
}
