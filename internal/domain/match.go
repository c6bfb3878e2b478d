package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MatchSide identifies which settlement entry point produced a match.
type MatchSide string

const (
	MatchSideTakerBid MatchSide = "taker_bid" // taker buys, maker ask consumed
	MatchSideTakerAsk MatchSide = "taker_ask" // taker sells, maker bid consumed
)

// MatchEvent is the structured record emitted for every completed match. It
// is the sole durable audit trail of an execution: persisted to the match
// store, published on the signal bus, and eventually archived to blob
// storage.
type MatchEvent struct {
	ID              string         `json:"id"` // UUID assigned at settlement
	Side            MatchSide      `json:"side"`
	OrderHash       common.Hash    `json:"orderHash"`
	OrderNonce      uint64         `json:"orderNonce"`
	Maker           common.Address `json:"maker"`
	Taker           common.Address `json:"taker"`
	Strategy        common.Address `json:"strategy"`
	Currency        common.Address `json:"currency"`
	Collection      common.Address `json:"collection"`
	TokenID         *big.Int       `json:"tokenId"`
	Amount          *big.Int       `json:"amount"`
	Price           *big.Int       `json:"price"`
	ProtocolFee     *big.Int       `json:"protocolFee"`
	RoyaltyFee      *big.Int       `json:"royaltyFee"`
	RoyaltyReceiver common.Address `json:"royaltyReceiver"`
	MatchedAt       time.Time      `json:"matchedAt"`
}

// CancelEvent is emitted when a signer invalidates orders, either by raising
// the minimum nonce or by cancelling individual nonces.
type CancelEvent struct {
	Signer      common.Address `json:"signer"`
	NewMinNonce uint64         `json:"newMinNonce,omitempty"`
	Nonces      []uint64       `json:"nonces,omitempty"`
	CancelledAt time.Time      `json:"cancelledAt"`
}

// FeeSplit is the decomposition of a gross sale price into its recipients.
// Net is what the seller keeps: Price - ProtocolFee - RoyaltyFee.
type FeeSplit struct {
	Price           *big.Int
	ProtocolFee     *big.Int
	RoyaltyFee      *big.Int
	RoyaltyReceiver common.Address
	Net             *big.Int
}
