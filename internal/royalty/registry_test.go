package royalty

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
	collection = common.HexToAddress("0xc0")
	receiver   = common.HexToAddress("0x4e")
)

func TestRegistryUpdateAndLookup(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(DefaultFeeCeilingBps, nil)
	require.Equal(t, DefaultFeeCeilingBps, r.FeeCeilingBps())

	info := domain.RoyaltyInfo{Collection: collection, Receiver: receiver, FeeBps: 500}
	require.NoError(t, r.UpdateRoyaltyInfoForCollection(ctx, info))

	got, ok := r.RoyaltyInfo(collection)
	require.True(t, ok)
	require.Equal(t, info, got)

	_, ok = r.RoyaltyInfo(common.HexToAddress("0x99"))
	require.False(t, ok)
}

func TestRegistryEnforcesCeiling(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(9500, nil)

	require.NoError(t, r.UpdateRoyaltyInfoForCollection(ctx, domain.RoyaltyInfo{
		Collection: collection, Receiver: receiver, FeeBps: 9500,
	}))
	require.ErrorIs(t, r.UpdateRoyaltyInfoForCollection(ctx, domain.RoyaltyInfo{
		Collection: collection, Receiver: receiver, FeeBps: 9501,
	}), domain.ErrRoyaltyFeeTooHigh)
}

func TestRegistryRejectsZeroAddresses(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(9500, nil)

	require.ErrorIs(t, r.UpdateRoyaltyInfoForCollection(ctx, domain.RoyaltyInfo{
		Receiver: receiver, FeeBps: 100,
	}), domain.ErrZeroAddress)
	require.ErrorIs(t, r.UpdateRoyaltyInfoForCollection(ctx, domain.RoyaltyInfo{
		Collection: collection, FeeBps: 100,
	}), domain.ErrZeroAddress)
}

func TestFeeManagerRegisteredPolicyWins(t *testing.T) {
	ctx := context.Background()
	set := ledger.NewSet()
	c := set.CreateUnitCollection(collection)
	c.SetRoyalty(common.HexToAddress("0x77"), 1000)

	r := NewRegistry(9500, nil)
	require.NoError(t, r.UpdateRoyaltyInfoForCollection(ctx, domain.RoyaltyInfo{
		Collection: collection, Receiver: receiver, FeeBps: 250,
	}))

	m := NewFeeManager(r, set)
	got, fee, err := m.CalculateRoyaltyFee(ctx, collection, big.NewInt(1), big.NewInt(10_000))
	require.NoError(t, err)
	require.Equal(t, receiver, got)
	require.Equal(t, int64(250), fee.Int64())
}

func TestFeeManagerFallsBackToCollection(t *testing.T) {
	ctx := context.Background()
	set := ledger.NewSet()
	c := set.CreateUnitCollection(collection)
	c.SetRoyalty(receiver, 1000)

	m := NewFeeManager(NewRegistry(9500, nil), set)
	got, fee, err := m.CalculateRoyaltyFee(ctx, collection, big.NewInt(1), big.NewInt(10_000))
	require.NoError(t, err)
	require.Equal(t, receiver, got)
	require.Equal(t, int64(1000), fee.Int64())
}

func TestFeeManagerZeroWhenNothingRegistered(t *testing.T) {
	ctx := context.Background()
	set := ledger.NewSet()
	set.CreateAmountCollection(collection) // no royalty capability configured

	m := NewFeeManager(NewRegistry(9500, nil), set)
	got, fee, err := m.CalculateRoyaltyFee(ctx, collection, big.NewInt(1), big.NewInt(10_000))
	require.NoError(t, err)
	require.Equal(t, common.Address{}, got)
	require.Zero(t, fee.Sign())
}

func TestFeeManagerTruncatesTowardZero(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(9500, nil)
	require.NoError(t, r.UpdateRoyaltyInfoForCollection(ctx, domain.RoyaltyInfo{
		Collection: collection, Receiver: receiver, FeeBps: 333,
	}))

	m := NewFeeManager(r, nil)
	_, fee, err := m.CalculateRoyaltyFee(ctx, collection, big.NewInt(1), big.NewInt(101))
	require.NoError(t, err)
	// 101 * 333 / 10000 = 3.36 -> 3
	require.Equal(t, int64(3), fee.Int64())
}
