package crypto

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/arcmarket/arcx/internal/domain"
)

// secp256k1HalfN is N/2 of the curve order. Signatures with s above this
// bound have a malleable twin and are rejected.
var secp256k1HalfN = new(big.Int).Rsh(ethcrypto.S256().Params().N, 1)

// Verifier checks maker order signatures against a fixed signing domain.
// Verification is pure: no state is read or written.
type Verifier struct {
	domain *Domain
}

// NewVerifier creates a Verifier bound to the given signing domain.
func NewVerifier(d *Domain) *Verifier {
	return &Verifier{domain: d}
}

// Verify recomputes the order digest and recovers the signing address from
// the order's (v, r, s) components. It returns nil only when the recovered
// address equals the order's claimed signer and the signer is non-zero.
// All failure paths return domain.ErrInvalidSignature; callers get no oracle
// for which component was wrong.
func (ver *Verifier) Verify(o domain.MakerOrder) error {
	if o.Signer == (common.Address{}) {
		return domain.ErrInvalidSignature
	}

	sig := o.Signature
	if sig.V != 27 && sig.V != 28 {
		return domain.ErrInvalidSignature
	}

	s := new(big.Int).SetBytes(sig.S.Bytes())
	if s.Sign() == 0 || s.Cmp(secp256k1HalfN) > 0 {
		return domain.ErrInvalidSignature
	}
	r := new(big.Int).SetBytes(sig.R.Bytes())
	if r.Sign() == 0 {
		return domain.ErrInvalidSignature
	}

	// go-ethereum expects the recovery id in {0,1} as the 65th byte.
	raw := make([]byte, 65)
	copy(raw[0:32], sig.R.Bytes())
	copy(raw[32:64], sig.S.Bytes())
	raw[64] = sig.V - 27

	digest := OrderDigest(ver.domain, o)
	pub, err := ethcrypto.SigToPub(digest, raw)
	if err != nil {
		return domain.ErrInvalidSignature
	}

	if ethcrypto.PubkeyToAddress(*pub) != o.Signer {
		return domain.ErrInvalidSignature
	}
	return nil
}
