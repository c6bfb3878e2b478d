package ledger

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0xa1")
	bob   = common.HexToAddress("0xb0")
)

func TestTokenTransfer(t *testing.T) {
	ctx := context.Background()
	tok := NewToken(common.HexToAddress("0x01"))
	tok.Mint(alice, big.NewInt(100))

	require.NoError(t, tok.Transfer(ctx, alice, bob, big.NewInt(40)))

	got, err := tok.BalanceOf(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, int64(60), got.Int64())
	got, err = tok.BalanceOf(ctx, bob)
	require.NoError(t, err)
	require.Equal(t, int64(40), got.Int64())

	require.Error(t, tok.Transfer(ctx, alice, bob, big.NewInt(1000)))
	require.NoError(t, tok.Transfer(ctx, alice, bob, new(big.Int)), "zero transfer is a no-op")
}

func TestWrappedTokenDepositWithdraw(t *testing.T) {
	ctx := context.Background()
	set := NewSet()
	w := set.CreateWrappedNative(common.HexToAddress("0x02"))
	set.Native().Credit(alice, big.NewInt(100))

	require.NoError(t, w.Deposit(ctx, alice, big.NewInt(70)))
	require.Equal(t, int64(30), set.Native().BalanceOf(alice).Int64())
	bal, err := w.BalanceOf(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, int64(70), bal.Int64())

	// Deposit beyond native balance fails without minting.
	require.Error(t, w.Deposit(ctx, alice, big.NewInt(1000)))

	require.NoError(t, w.Withdraw(ctx, alice, big.NewInt(70)))
	require.Equal(t, int64(100), set.Native().BalanceOf(alice).Int64())

	// Withdraw beyond wrapped balance fails without crediting native.
	require.Error(t, w.Withdraw(ctx, alice, big.NewInt(1)))
	require.Equal(t, int64(100), set.Native().BalanceOf(alice).Int64())
}

func TestUnitCollectionOwnership(t *testing.T) {
	ctx := context.Background()
	c := NewUnitCollection(common.HexToAddress("0x03"))
	c.Mint(alice, big.NewInt(7))

	owner, err := c.OwnerOf(ctx, big.NewInt(7))
	require.NoError(t, err)
	require.Equal(t, alice, owner)

	// Only the current owner can transfer.
	require.Error(t, c.TransferUnit(ctx, bob, alice, big.NewInt(7)))
	require.NoError(t, c.TransferUnit(ctx, alice, bob, big.NewInt(7)))

	_, err = c.OwnerOf(ctx, big.NewInt(8))
	require.Error(t, err)
}

func TestSetResolvers(t *testing.T) {
	set := NewSet()
	tokAddr := common.HexToAddress("0x01")
	colAddr := common.HexToAddress("0x02")
	set.CreateToken(tokAddr)
	set.CreateUnitCollection(colAddr)

	_, ok := set.Currency(tokAddr)
	require.True(t, ok)
	_, ok = set.Currency(colAddr)
	require.False(t, ok)
	_, ok = set.Collection(colAddr)
	require.True(t, ok)
	_, ok = set.Collection(tokAddr)
	require.False(t, ok)
}
