package strategy

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// AnyItemFromCollectionForFixedPrice matches any token id from the maker's
// collection at the maker's price. The maker's tokenId field is deliberately
// ignored; the taker's token id decides which unit moves. This is the
// collection-wide bid/ask policy, not a defect.
type AnyItemFromCollectionForFixedPrice struct {
	addr   common.Address
	feeBps uint16
}

// NewAnyItemFromCollectionForFixedPrice creates the strategy with its
// whitelist address and protocol fee in basis points.
func NewAnyItemFromCollectionForFixedPrice(addr common.Address, feeBps uint16) *AnyItemFromCollectionForFixedPrice {
	return &AnyItemFromCollectionForFixedPrice{addr: addr, feeBps: feeBps}
}

func (s *AnyItemFromCollectionForFixedPrice) Address() common.Address { return s.addr }
func (s *AnyItemFromCollectionForFixedPrice) Name() string            { return "any_item_from_collection_fixed_price" }
func (s *AnyItemFromCollectionForFixedPrice) ProtocolFeeBps() uint16  { return s.feeBps }

// CanExecute requires only price agreement; the execution token id comes
// from the taker order.
func (s *AnyItemFromCollectionForFixedPrice) CanExecute(maker domain.MakerOrder, taker domain.TakerOrder) domain.Execution {
	if maker.Price == nil || taker.Price == nil || taker.TokenID == nil {
		return domain.NoExecution()
	}
	if maker.Price.Cmp(taker.Price) != 0 {
		return domain.NoExecution()
	}
	return domain.Execution{
		OK:      true,
		Price:   maker.Price,
		TokenID: taker.TokenID,
		Amount:  maker.Amount,
	}
}
