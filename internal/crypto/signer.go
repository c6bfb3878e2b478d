package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/arcmarket/arcx/internal/domain"
)

// Signer produces maker order signatures. It is used by order producers
// (market maker tooling, test fixtures); the exchange itself only verifies.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewSigner creates a Signer from a hex-encoded secp256k1 private key.
func NewSigner(privateKeyHex string) (*Signer, error) {
	keyHex := strings.TrimPrefix(privateKeyHex, "0x")
	pk, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid private key: %w", err)
	}
	return &Signer{
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
	}, nil
}

// NewSignerFromKey wraps an existing private key.
func NewSignerFromKey(pk *ecdsa.PrivateKey) *Signer {
	return &Signer{
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
	}
}

// Address returns the address derived from the signer's private key.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignMakerOrder signs the EIP-712 digest of the order under the given
// domain and returns the split (v, r, s) signature. The order's Signer field
// is not touched; callers are expected to have set it to s.Address().
func (s *Signer) SignMakerOrder(d *Domain, o domain.MakerOrder) (domain.Signature, error) {
	digest := OrderDigest(d, o)

	raw, err := ethcrypto.Sign(digest, s.privateKey)
	if err != nil {
		return domain.Signature{}, fmt.Errorf("crypto: sign order: %w", err)
	}

	// go-ethereum returns the recovery id in {0,1}; the wire format wants
	// v in {27,28}.
	return domain.Signature{
		V: raw[64] + 27,
		R: common.BytesToHash(raw[0:32]),
		S: common.BytesToHash(raw[32:64]),
	}, nil
}
