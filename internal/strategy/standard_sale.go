package strategy

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// StandardSaleForFixedPrice matches only when the taker meets the maker's
// exact price and token id. Execution terms pass through from the maker
// order unchanged.
type StandardSaleForFixedPrice struct {
	addr   common.Address
	feeBps uint16
}

// NewStandardSaleForFixedPrice creates the strategy with its whitelist
// address and protocol fee in basis points.
func NewStandardSaleForFixedPrice(addr common.Address, feeBps uint16) *StandardSaleForFixedPrice {
	return &StandardSaleForFixedPrice{addr: addr, feeBps: feeBps}
}

func (s *StandardSaleForFixedPrice) Address() common.Address { return s.addr }
func (s *StandardSaleForFixedPrice) Name() string            { return "standard_sale_fixed_price" }
func (s *StandardSaleForFixedPrice) ProtocolFeeBps() uint16  { return s.feeBps }

// CanExecute requires taker.price == maker.price and
// taker.tokenId == maker.tokenId.
func (s *StandardSaleForFixedPrice) CanExecute(maker domain.MakerOrder, taker domain.TakerOrder) domain.Execution {
	if maker.Price == nil || taker.Price == nil || maker.TokenID == nil || taker.TokenID == nil {
		return domain.NoExecution()
	}
	if maker.Price.Cmp(taker.Price) != 0 || maker.TokenID.Cmp(taker.TokenID) != 0 {
		return domain.NoExecution()
	}
	return domain.Execution{
		OK:      true,
		Price:   maker.Price,
		TokenID: maker.TokenID,
		Amount:  maker.Amount,
	}
}
