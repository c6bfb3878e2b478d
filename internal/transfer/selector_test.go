package transfer

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/arcmarket/arcx/internal/domain"
	"github.com/arcmarket/arcx/internal/ledger"
)

var (
	unitAddr   = common.HexToAddress("0x01")
	amountAddr = common.HexToAddress("0x02")
	from       = common.HexToAddress("0xf0")
	to         = common.HexToAddress("0x70")
)

func newSelector(t *testing.T) (*Selector, *ledger.Set) {
	t.Helper()
	set := ledger.NewSet()
	return NewSelector(NewSingleUnitManager(), NewAmountManager(), set), set
}

func TestResolveByCapability(t *testing.T) {
	sel, set := newSelector(t)
	set.CreateUnitCollection(unitAddr)
	set.CreateAmountCollection(amountAddr)

	handle, mgr, err := sel.Resolve(unitAddr)
	require.NoError(t, err)
	require.Equal(t, unitAddr, handle.Address())
	require.IsType(t, &SingleUnitManager{}, mgr)

	handle, mgr, err = sel.Resolve(amountAddr)
	require.NoError(t, err)
	require.Equal(t, amountAddr, handle.Address())
	require.IsType(t, &AmountManager{}, mgr)
}

func TestResolveUnknownCollection(t *testing.T) {
	sel, _ := newSelector(t)
	_, _, err := sel.Resolve(common.HexToAddress("0x99"))
	require.ErrorIs(t, err, domain.ErrUnsupportedCollection)
}

func TestOverrideTakesPrecedence(t *testing.T) {
	sel, set := newSelector(t)
	set.CreateUnitCollection(unitAddr)

	override := NewAmountManager()
	require.NoError(t, sel.AddOverride(unitAddr, override))

	_, mgr, err := sel.Resolve(unitAddr)
	require.NoError(t, err)
	require.Same(t, override, mgr)

	require.NoError(t, sel.RemoveOverride(unitAddr))
	_, mgr, err = sel.Resolve(unitAddr)
	require.NoError(t, err)
	require.IsType(t, &SingleUnitManager{}, mgr)

	require.ErrorIs(t, sel.RemoveOverride(unitAddr), domain.ErrNotFound)
	require.ErrorIs(t, sel.AddOverride(common.Address{}, override), domain.ErrZeroAddress)
}

func TestSingleUnitTransfer(t *testing.T) {
	ctx := context.Background()
	_, set := newSelector(t)
	c := set.CreateUnitCollection(unitAddr)
	c.Mint(from, big.NewInt(7))

	mgr := NewSingleUnitManager()
	require.NoError(t, mgr.Transfer(ctx, c, from, to, big.NewInt(7), big.NewInt(1)))

	owner, err := c.OwnerOf(ctx, big.NewInt(7))
	require.NoError(t, err)
	require.Equal(t, to, owner)

	// Sender no longer owns the token.
	err = mgr.Transfer(ctx, c, from, to, big.NewInt(7), big.NewInt(1))
	require.ErrorIs(t, err, domain.ErrTransferFailed)
}

func TestAmountTransfer(t *testing.T) {
	ctx := context.Background()
	_, set := newSelector(t)
	c := set.CreateAmountCollection(amountAddr)
	c.Mint(from, big.NewInt(7), big.NewInt(10))

	mgr := NewAmountManager()
	require.NoError(t, mgr.Transfer(ctx, c, from, to, big.NewInt(7), big.NewInt(4)))

	bal, err := c.BalanceOf(ctx, to, big.NewInt(7))
	require.NoError(t, err)
	require.Equal(t, int64(4), bal.Int64())

	// Overdraft is rejected.
	err = mgr.Transfer(ctx, c, from, to, big.NewInt(7), big.NewInt(100))
	require.ErrorIs(t, err, domain.ErrTransferFailed)
}

func TestManagersRejectWrongCapability(t *testing.T) {
	ctx := context.Background()
	_, set := newSelector(t)
	unit := set.CreateUnitCollection(unitAddr)
	amount := set.CreateAmountCollection(amountAddr)

	err := NewSingleUnitManager().Transfer(ctx, amount, from, to, big.NewInt(1), big.NewInt(1))
	require.ErrorIs(t, err, domain.ErrUnsupportedCollection)

	err = NewAmountManager().Transfer(ctx, unit, from, to, big.NewInt(1), big.NewInt(1))
	require.ErrorIs(t, err, domain.ErrUnsupportedCollection)
}
