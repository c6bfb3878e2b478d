package domain

import "github.com/ethereum/go-ethereum/common"

// RoyaltyInfo is the creator-configured royalty policy for a collection,
// capped by the registry ceiling at registration time.
type RoyaltyInfo struct {
	Collection common.Address `json:"collection"`
	Setter     common.Address `json:"setter"`
	Receiver   common.Address `json:"receiver"`
	FeeBps     uint16         `json:"feeBps"`
}
