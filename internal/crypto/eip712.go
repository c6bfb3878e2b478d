// Package crypto implements the EIP-712 structured signing scheme used for
// maker orders: digest construction, signature verification, and a signer for
// order producers.
package crypto

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/arcmarket/arcx/internal/domain"
)

// Protocol signing domain constants. Changing either invalidates every
// outstanding signed order.
const (
	DomainName    = "ARC Marketplace"
	DomainVersion = "1"
)

// --------------------------------------------------------------------------
// EIP-712 type hashes (pre-computed keccak256 of the canonical type strings).
// --------------------------------------------------------------------------

var (
	// EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)
	eip712DomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"),
	)

	// MakerOrder with its thirteen fields in canonical order. Byte-exact
	// field order matters: a reordering produces a different digest and
	// invalidates all signatures.
	makerOrderTypeHash = ethcrypto.Keccak256(
		[]byte("MakerOrder(bool isOrderAsk,address signer,address collection,uint256 price,uint256 tokenId,uint256 amount,address strategy,address currency,uint256 nonce,uint256 startTime,uint256 endTime,uint256 minPercentageToAsk,bytes params)"),
	)
)

// Domain binds signatures to one deployment of the exchange: protocol name
// and version, chain identifier, and the exchange's own address.
type Domain struct {
	ChainID           *big.Int
	VerifyingContract common.Address

	separator []byte // cached; computed on first use
}

// NewDomain builds the signing domain for the given chain and exchange
// address and pre-computes the domain separator.
func NewDomain(chainID *big.Int, verifyingContract common.Address) *Domain {
	d := &Domain{
		ChainID:           chainID,
		VerifyingContract: verifyingContract,
	}
	d.separator = ethcrypto.Keccak256(
		concatBytes(
			eip712DomainTypeHash,
			ethcrypto.Keccak256([]byte(DomainName)),
			ethcrypto.Keccak256([]byte(DomainVersion)),
			bigIntTo32Bytes(chainID),
			common.LeftPadBytes(verifyingContract.Bytes(), 32),
		),
	)
	return d
}

// Separator returns the cached EIP-712 domain separator hash.
func (d *Domain) Separator() []byte {
	return d.separator
}

// OrderStructHash encodes and hashes a MakerOrder according to EIP-712.
// Dynamic fields (params) are folded in as their keccak256 hash. This is the
// order hash reported in match events.
func OrderStructHash(o domain.MakerOrder) common.Hash {
	isAsk := big.NewInt(0)
	if o.IsOrderAsk {
		isAsk = big.NewInt(1)
	}

	return common.BytesToHash(ethcrypto.Keccak256(
		concatBytes(
			makerOrderTypeHash,
			bigIntTo32Bytes(isAsk),
			common.LeftPadBytes(o.Signer.Bytes(), 32),
			common.LeftPadBytes(o.Collection.Bytes(), 32),
			bigIntTo32Bytes(o.Price),
			bigIntTo32Bytes(o.TokenID),
			bigIntTo32Bytes(o.Amount),
			common.LeftPadBytes(o.Strategy.Bytes(), 32),
			common.LeftPadBytes(o.Currency.Bytes(), 32),
			bigIntTo32Bytes(new(big.Int).SetUint64(o.Nonce)),
			bigIntTo32Bytes(new(big.Int).SetUint64(o.StartTime)),
			bigIntTo32Bytes(new(big.Int).SetUint64(o.EndTime)),
			bigIntTo32Bytes(big.NewInt(int64(o.MinPercentageToAsk))),
			ethcrypto.Keccak256(o.Params),
		),
	))
}

// OrderDigest computes the final EIP-712 digest for a maker order:
//
//	keccak256("\x19\x01" || domainSeparator || structHash)
func OrderDigest(d *Domain, o domain.MakerOrder) []byte {
	return ethcrypto.Keccak256(
		concatBytes(
			[]byte{0x19, 0x01},
			d.Separator(),
			OrderStructHash(o).Bytes(),
		),
	)
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// bigIntTo32Bytes left-pads a big integer to a 32-byte word. Nil is encoded
// as zero.
func bigIntTo32Bytes(n *big.Int) []byte {
	if n == nil {
		return make([]byte, 32)
	}
	return common.LeftPadBytes(n.Bytes(), 32)
}

func concatBytes(chunks ...[]byte) []byte {
	var total int
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
