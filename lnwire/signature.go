package lnwire

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
)

// Sig is a fixed 64-byte compact ECDSA signature: a 32-byte big-endian R
// value followed by a 32-byte big-endian S value, with no DER framing and
// no recovery id, per spec.md ยง4.E.
type Sig [64]byte

// NewSigFromSignature converts a parsed *btcec.Signature into its compact
// wire form, left-padding R and S to 32 bytes each.
func NewSigFromSignature(sig *btcec.Signature) (Sig, error) {
	var b Sig

	rBytes := sig.R.Bytes()
	sBytes := sig.S.Bytes()
	if len(rBytes) > 32 || len(sBytes) > 32 {
		return b, fmt.Errorf("lnwire: signature values overflow 32 bytes")
	}

	copy(b[32-len(rBytes):32], rBytes)
	copy(b[64-len(sBytes):64], sBytes)

	return b, nil
}

// ToSignature reconstructs a *btcec.Signature from the compact wire form.
func (b Sig) ToSignature() (*btcec.Signature, error) {
	return &btcec.Signature{
		R: new(big.Int).SetBytes(b[0:32]),
		S: new(big.Int).SetBytes(b[32:64]),
	}, nil
}
