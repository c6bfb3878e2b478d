package strategy

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/arcmarket/arcx/internal/domain"
)

var (
	stratAddr = common.HexToAddress("0x51")
	buyer     = common.HexToAddress("0xb1")
)

func makerAsk(price, tokenID int64) domain.MakerOrder {
	return domain.MakerOrder{
		IsOrderAsk: true,
		Signer:     common.HexToAddress("0xa1"),
		Price:      big.NewInt(price),
		TokenID:    big.NewInt(tokenID),
		Amount:     big.NewInt(1),
	}
}

func takerBid(price, tokenID int64) domain.TakerOrder {
	return domain.TakerOrder{
		Taker:   buyer,
		Price:   big.NewInt(price),
		TokenID: big.NewInt(tokenID),
	}
}

func TestStandardSaleForFixedPrice(t *testing.T) {
	s := NewStandardSaleForFixedPrice(stratAddr, 200)
	require.Equal(t, stratAddr, s.Address())
	require.Equal(t, uint16(200), s.ProtocolFeeBps())

	t.Run("exact terms execute", func(t *testing.T) {
		exec := s.CanExecute(makerAsk(100, 7), takerBid(100, 7))
		require.True(t, exec.OK)
		require.Equal(t, int64(100), exec.Price.Int64())
		require.Equal(t, int64(7), exec.TokenID.Int64())
		require.Equal(t, int64(1), exec.Amount.Int64())
	})

	t.Run("price mismatch rejects", func(t *testing.T) {
		require.False(t, s.CanExecute(makerAsk(100, 7), takerBid(99, 7)).OK)
	})

	t.Run("token id mismatch rejects", func(t *testing.T) {
		require.False(t, s.CanExecute(makerAsk(100, 7), takerBid(100, 8)).OK)
	})

	t.Run("nil terms reject", func(t *testing.T) {
		maker := makerAsk(100, 7)
		maker.Price = nil
		require.False(t, s.CanExecute(maker, takerBid(100, 7)).OK)
	})
}

func TestAnyItemFromCollectionForFixedPrice(t *testing.T) {
	s := NewAnyItemFromCollectionForFixedPrice(stratAddr, 200)

	t.Run("taker token id wins", func(t *testing.T) {
		maker := makerAsk(100, 1)
		exec := s.CanExecute(maker, takerBid(100, 99))
		require.True(t, exec.OK)
		require.Equal(t, int64(99), exec.TokenID.Int64(), "execution token id comes from the taker")
	})

	t.Run("maker token id may be nil", func(t *testing.T) {
		maker := makerAsk(100, 0)
		maker.TokenID = nil
		require.True(t, s.CanExecute(maker, takerBid(100, 5)).OK)
	})

	t.Run("price mismatch rejects", func(t *testing.T) {
		require.False(t, s.CanExecute(makerAsk(100, 1), takerBid(101, 1)).OK)
	})

	t.Run("taker without token id rejects", func(t *testing.T) {
		taker := takerBid(100, 0)
		taker.TokenID = nil
		require.False(t, s.CanExecute(makerAsk(100, 1), taker).OK)
	})
}

func TestPrivateSale(t *testing.T) {
	s := NewPrivateSale(stratAddr, 0)

	withTarget := func(target common.Address, pad bool) domain.MakerOrder {
		maker := makerAsk(100, 7)
		if pad {
			maker.Params = common.LeftPadBytes(target.Bytes(), 32)
		} else {
			maker.Params = target.Bytes()
		}
		return maker
	}

	t.Run("target buyer executes", func(t *testing.T) {
		require.True(t, s.CanExecute(withTarget(buyer, false), takerBid(100, 7)).OK)
	})

	t.Run("abi padded target executes", func(t *testing.T) {
		require.True(t, s.CanExecute(withTarget(buyer, true), takerBid(100, 7)).OK)
	})

	t.Run("other buyer rejects", func(t *testing.T) {
		require.False(t, s.CanExecute(withTarget(common.HexToAddress("0x99"), false), takerBid(100, 7)).OK)
	})

	t.Run("missing params reject", func(t *testing.T) {
		require.False(t, s.CanExecute(makerAsk(100, 7), takerBid(100, 7)).OK)
	})

	t.Run("garbage padding rejects", func(t *testing.T) {
		maker := withTarget(buyer, true)
		maker.Params[0] = 0xff
		require.False(t, s.CanExecute(maker, takerBid(100, 7)).OK)
	})

	t.Run("terms must still agree", func(t *testing.T) {
		require.False(t, s.CanExecute(withTarget(buyer, false), takerBid(99, 7)).OK)
		require.False(t, s.CanExecute(withTarget(buyer, false), takerBid(100, 8)).OK)
	})
}
