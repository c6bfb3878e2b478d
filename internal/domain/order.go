package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BasisPointsDenominator is the denominator for all fee and percentage
// calculations (100% = 10000 bp).
const BasisPointsDenominator = 10000

// Signature is a secp256k1 signature split into its recovery components.
// V must be 27 or 28 and S must be in the lower half of the curve order;
// anything else is rejected as malleable.
type Signature struct {
	V uint8       `json:"v"`
	R common.Hash `json:"r"`
	S common.Hash `json:"s"`
}

// MakerOrder is an off-line-signed intent to buy or sell an asset at stated
// terms. It is immutable once signed; its identity is (Signer, Nonce).
type MakerOrder struct {
	IsOrderAsk         bool           `json:"isOrderAsk"` // true = selling the asset
	Signer             common.Address `json:"signer"`
	Collection         common.Address `json:"collection"`
	Price              *big.Int       `json:"price"`
	TokenID            *big.Int       `json:"tokenId"`
	Amount             *big.Int       `json:"amount"`
	Strategy           common.Address `json:"strategy"`
	Currency           common.Address `json:"currency"`
	Nonce              uint64         `json:"nonce"`
	StartTime          uint64         `json:"startTime"` // unix seconds
	EndTime            uint64         `json:"endTime"`   // unix seconds
	MinPercentageToAsk uint16         `json:"minPercentageToAsk"`
	Params             []byte         `json:"params"`
	Signature          Signature      `json:"signature"`
}

// TakerOrder is the on-the-spot counter-intent submitted by the executing
// caller. It is never signed and never persisted.
type TakerOrder struct {
	IsOrderAsk         bool           `json:"isOrderAsk"`
	Taker              common.Address `json:"taker"`
	Price              *big.Int       `json:"price"`
	TokenID            *big.Int       `json:"tokenId"`
	MinPercentageToAsk uint16         `json:"minPercentageToAsk"`
	Params             []byte         `json:"params"`
}

// Execution is a strategy's verdict on a maker/taker pair. When OK is true,
// Price, TokenID and Amount carry the agreed execution terms. The token id is
// part of the verdict because some strategies (any-item-from-collection) take
// it from the taker order rather than the maker order.
type Execution struct {
	OK      bool
	Price   *big.Int
	TokenID *big.Int
	Amount  *big.Int
}

// NoExecution is the verdict returned when a strategy rejects the pair.
func NoExecution() Execution {
	return Execution{}
}
