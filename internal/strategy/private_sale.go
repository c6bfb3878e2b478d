package strategy

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// PrivateSale restricts a maker ask to a single intended buyer. The buyer's
// address is carried in the maker order's params and is covered by the
// order signature, so it cannot be swapped after signing.
type PrivateSale struct {
	addr   common.Address
	feeBps uint16
}

// NewPrivateSale creates the strategy with its whitelist address and
// protocol fee in basis points.
func NewPrivateSale(addr common.Address, feeBps uint16) *PrivateSale {
	return &PrivateSale{addr: addr, feeBps: feeBps}
}

func (s *PrivateSale) Address() common.Address { return s.addr }
func (s *PrivateSale) Name() string            { return "private_sale" }
func (s *PrivateSale) ProtocolFeeBps() uint16  { return s.feeBps }

// CanExecute requires exact price and token id agreement plus a taker that
// matches the target buyer decoded from the maker's params.
func (s *PrivateSale) CanExecute(maker domain.MakerOrder, taker domain.TakerOrder) domain.Execution {
	target, ok := decodeTargetBuyer(maker.Params)
	if !ok || taker.Taker != target {
		return domain.NoExecution()
	}
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

// decodeTargetBuyer accepts either a bare 20-byte address or a 32-byte
// ABI-encoded word with the address right-aligned.
func decodeTargetBuyer(params []byte) (common.Address, bool) {
	switch len(params) {
	case common.AddressLength:
		return common.BytesToAddress(params), true
	case 32:
		for _, b := range params[:12] {
			if b != 0 {
				return common.Address{}, false
			}
		}
		return common.BytesToAddress(params[12:]), true
	default:
		return common.Address{}, false
	}
}
