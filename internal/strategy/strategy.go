// Package strategy implements the pluggable matching policies that decide
// whether a maker/taker pair agrees on terms and at what price, token id,
// and amount the pair executes.
//
// Strategies are stateless pure functions of their inputs, so any verdict
// can be re-derived off-process for auditing. Side and authorization checks
// are the engine's job; a strategy only judges term agreement.
package strategy

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/arcmarket/arcx/internal/domain"
)

// Strategy is one matching policy, addressable for whitelisting and order
// references. ProtocolFeeBps is the protocol's cut when this strategy
// executes a match; the execution manager treats it as the strategy's fee
// ceiling.
type Strategy interface {
	Address() common.Address
	Name() string
	ProtocolFeeBps() uint16
	CanExecute(maker domain.MakerOrder, taker domain.TakerOrder) domain.Execution
}
