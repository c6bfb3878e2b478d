package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

var (
	errNotOwner         = errors.New("not the owner")
	errNonexistentToken = errors.New("nonexistent token")
)

// UnitCollection is an in-memory single-unit collection: each token id has
// exactly one owner. It optionally exposes an on-asset royalty policy for
// the fee manager's fallback probe.
type UnitCollection struct {
	addr common.Address

	mu     sync.Mutex
	owners map[string]common.Address // key: tokenID.String()

	royaltyReceiver common.Address
	royaltyBps      uint16
}

// NewUnitCollection creates an empty UnitCollection at the given address.
func NewUnitCollection(addr common.Address) *UnitCollection {
	return &UnitCollection{addr: addr, owners: make(map[string]common.Address)}
}

// Address returns the collection's ledger address.
func (c *UnitCollection) Address() common.Address { return c.addr }

// Mint assigns a fresh token id to the owner. Test and local-mode seeding
// only.
func (c *UnitCollection) Mint(owner common.Address, tokenID *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owners[tokenID.String()] = owner
}

// SetRoyalty configures the on-asset royalty policy reported by
// RoyaltyInfo.
func (c *UnitCollection) SetRoyalty(receiver common.Address, feeBps uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.royaltyReceiver = receiver
	c.royaltyBps = feeBps
}

// OwnerOf returns the current owner of tokenID.
func (c *UnitCollection) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.owners[tokenID.String()]
	if !ok {
		return common.Address{}, fmt.Errorf("collection %s token %s: %w", c.addr, tokenID, errNonexistentToken)
	}
	return owner, nil
}

// TransferUnit moves tokenID to a new owner, rejecting transfers not
// initiated from the current owner.
func (c *UnitCollection) TransferUnit(ctx context.Context, from, to common.Address, tokenID *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tokenID.String()
	owner, ok := c.owners[key]
	if !ok {
		return fmt.Errorf("collection %s token %s: %w", c.addr, tokenID, errNonexistentToken)
	}
	if owner != from {
		return fmt.Errorf("collection %s token %s held by %s: %w", c.addr, tokenID, owner, errNotOwner)
	}
	c.owners[key] = to
	return nil
}

// RoyaltyInfo reports the configured on-asset royalty for a sale. A zero
// receiver means no royalty is due.
func (c *UnitCollection) RoyaltyInfo(ctx context.Context, tokenID, salePrice *big.Int) (common.Address, *big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.royaltyReceiver == (common.Address{}) || c.royaltyBps == 0 {
		return common.Address{}, new(big.Int), nil
	}
	amount := new(big.Int).Mul(salePrice, big.NewInt(int64(c.royaltyBps)))
	amount.Quo(amount, big.NewInt(domain.BasisPointsDenominator))
	return c.royaltyReceiver, amount, nil
}

// AmountCollection is an in-memory amount-bearing collection: token ids
// carry fungible balances per owner.
type AmountCollection struct {
	addr common.Address

	mu       sync.Mutex
	balances map[string]map[common.Address]*big.Int // key: tokenID.String()
}

// NewAmountCollection creates an empty AmountCollection at the given
// address.
func NewAmountCollection(addr common.Address) *AmountCollection {
	return &AmountCollection{addr: addr, balances: make(map[string]map[common.Address]*big.Int)}
}

// Address returns the collection's ledger address.
func (c *AmountCollection) Address() common.Address { return c.addr }

// Mint credits amount units of tokenID to the owner. Test and local-mode
// seeding only.
func (c *AmountCollection) Mint(owner common.Address, tokenID, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tokenID.String()
	holders, ok := c.balances[key]
	if !ok {
		holders = make(map[common.Address]*big.Int)
		c.balances[key] = holders
	}
	cur, ok := holders[owner]
	if !ok {
		cur = new(big.Int)
		holders[owner] = cur
	}
	cur.Add(cur, amount)
}

// BalanceOf returns the owner's balance of tokenID.
func (c *AmountCollection) BalanceOf(ctx context.Context, owner common.Address, tokenID *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if holders, ok := c.balances[tokenID.String()]; ok {
		if cur, ok := holders[owner]; ok {
			return new(big.Int).Set(cur), nil
		}
	}
	return new(big.Int), nil
}

// TransferAmount moves amount units of tokenID between owners, rejecting
// overdrafts.
func (c *AmountCollection) TransferAmount(ctx context.Context, from, to common.Address, tokenID, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tokenID.String()
	holders, ok := c.balances[key]
	if !ok {
		return fmt.Errorf("collection %s token %s: %w", c.addr, tokenID, errNonexistentToken)
	}
	cur, ok := holders[from]
	if !ok || cur.Cmp(amount) < 0 {
		return fmt.Errorf("collection %s token %s owner %s: %w", c.addr, tokenID, from, errInsufficientBalance)
	}
	cur.Sub(cur, amount)

	dst, ok := holders[to]
	if !ok {
		dst = new(big.Int)
		holders[to] = dst
	}
	dst.Add(dst, amount)
	return nil
}

// Compile-time interface checks.
var (
	_ domain.SingleAssetLedger   = (*UnitCollection)(nil)
	_ domain.AmountAssetLedger   = (*AmountCollection)(nil)
	_ domain.RoyaltyInfoProvider = (*UnitCollection)(nil)
)
