package royalty

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

var bpsDenominator = big.NewInt(domain.BasisPointsDenominator)

// FeeManager resolves the royalty split for a sale. Registered policies win;
// otherwise the collection handle is probed for an on-asset royalty
// capability; otherwise the royalty is zero.
type FeeManager struct {
	registry    *Registry
	collections domain.CollectionResolver
}

// NewFeeManager creates a FeeManager. collections may be nil, in which case
// the on-asset fallback probe is skipped.
func NewFeeManager(registry *Registry, collections domain.CollectionResolver) *FeeManager {
	return &FeeManager{registry: registry, collections: collections}
}

// CalculateRoyaltyFee returns the royalty receiver and amount for selling
// tokenID of collection at salePrice. Amount is salePrice * feeBps / 10000,
// truncated toward zero. A zero receiver or zero amount means no royalty is
// due.
func (m *FeeManager) CalculateRoyaltyFee(ctx context.Context, collection common.Address, tokenID, salePrice *big.Int) (common.Address, *big.Int, error) {
	if info, ok := m.registry.RoyaltyInfo(collection); ok {
		amount := new(big.Int).Mul(salePrice, big.NewInt(int64(info.FeeBps)))
		amount.Quo(amount, bpsDenominator)
		return info.Receiver, amount, nil
	}

	// No registered policy: probe the collection itself.
	if m.collections != nil {
		if handle, ok := m.collections.Collection(collection); ok {
			if provider, ok := handle.(domain.RoyaltyInfoProvider); ok {
				receiver, amount, err := provider.RoyaltyInfo(ctx, tokenID, salePrice)
				if err != nil {
					return common.Address{}, nil, err
				}
				return receiver, amount, nil
			}
		}
	}

	return common.Address{}, new(big.Int), nil
}
