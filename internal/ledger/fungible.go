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

var errInsufficientBalance = errors.New("insufficient balance")

// Native is the native-asset balance table shared by a ledger Set.
type Native struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
}

// NewNative creates an empty native balance table.
func NewNative() *Native {
	return &Native{balances: make(map[common.Address]*big.Int)}
}

// Credit adds amount to the owner's native balance.
func (n *Native) Credit(owner common.Address, amount *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.credit(owner, amount)
}

func (n *Native) credit(owner common.Address, amount *big.Int) {
	cur, ok := n.balances[owner]
	if !ok {
		cur = new(big.Int)
		n.balances[owner] = cur
	}
	cur.Add(cur, amount)
}

func (n *Native) debit(owner common.Address, amount *big.Int) error {
	cur, ok := n.balances[owner]
	if !ok || cur.Cmp(amount) < 0 {
		return fmt.Errorf("native %s: %w", owner, errInsufficientBalance)
	}
	cur.Sub(cur, amount)
	return nil
}

// BalanceOf returns the owner's native balance.
func (n *Native) BalanceOf(owner common.Address) *big.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if cur, ok := n.balances[owner]; ok {
		return new(big.Int).Set(cur)
	}
	return new(big.Int)
}

// Token is an in-memory fungible settlement currency.
type Token struct {
	addr     common.Address
	mu       sync.Mutex
	balances map[common.Address]*big.Int
}

// NewToken creates an empty Token at the given address.
func NewToken(addr common.Address) *Token {
	return &Token{addr: addr, balances: make(map[common.Address]*big.Int)}
}

// Address returns the token's ledger address.
func (t *Token) Address() common.Address { return t.addr }

// Mint credits amount to the owner. Test and local-mode seeding only.
func (t *Token) Mint(owner common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(owner, amount)
}

func (t *Token) credit(owner common.Address, amount *big.Int) {
	cur, ok := t.balances[owner]
	if !ok {
		cur = new(big.Int)
		t.balances[owner] = cur
	}
	cur.Add(cur, amount)
}

func (t *Token) debit(owner common.Address, amount *big.Int) error {
	cur, ok := t.balances[owner]
	if !ok || cur.Cmp(amount) < 0 {
		return fmt.Errorf("token %s owner %s: %w", t.addr, owner, errInsufficientBalance)
	}
	cur.Sub(cur, amount)
	return nil
}

// BalanceOf returns the owner's balance.
func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.balances[owner]; ok {
		return new(big.Int).Set(cur), nil
	}
	return new(big.Int), nil
}

// Transfer moves amount from one owner to another, rejecting overdrafts.
func (t *Token) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.debit(from, amount); err != nil {
		return err
	}
	t.credit(to, amount)
	return nil
}

// WrappedToken is a fungible token backed 1:1 by the native balance table.
type WrappedToken struct {
	*Token
	native *Native
}

// NewWrappedToken creates a WrappedToken at the given address backed by the
// native table.
func NewWrappedToken(addr common.Address, native *Native) *WrappedToken {
	return &WrappedToken{Token: NewToken(addr), native: native}
}

// Deposit converts native balance into wrapped credit for the owner.
func (w *WrappedToken) Deposit(ctx context.Context, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	w.native.mu.Lock()
	err := w.native.debit(to, amount)
	w.native.mu.Unlock()
	if err != nil {
		return err
	}
	w.Token.Mint(to, amount)
	return nil
}

// Withdraw burns wrapped credit and returns native balance to the owner.
func (w *WrappedToken) Withdraw(ctx context.Context, from common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	w.Token.mu.Lock()
	err := w.Token.debit(from, amount)
	w.Token.mu.Unlock()
	if err != nil {
		return err
	}
	w.native.Credit(from, amount)
	return nil
}

// Compile-time interface checks.
var (
	_ domain.FungibleLedger      = (*Token)(nil)
	_ domain.WrappedNativeLedger = (*WrappedToken)(nil)
)
