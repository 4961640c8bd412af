// Package keychain describes the keys a channel's scripts are built from.
// Full HD derivation is out of scope for this core: callers hand in
// concrete public keys rather than (family, index) locators resolved
// against a wallet seed.
package keychain

import "github.com/btcsuite/btcd/btcec"

// KeyFamily groups related keys under a single derivation purpose. It is
// carried through KeyDescriptor for compatibility with callers that do
// perform HD derivation, but this core never resolves a KeyLocator itself.
type KeyFamily uint32

const (
	// KeyFamilyMultiSig is the family used for a channel's funding
	// output keys.
	KeyFamilyMultiSig KeyFamily = iota

	// KeyFamilyRevocationBase is the family used for a channel's
	// revocation basepoint.
	KeyFamilyRevocationBase

	// KeyFamilyHtlcBase is the family used for a channel's HTLC
	// basepoint.
	KeyFamilyHtlcBase

	// KeyFamilyPaymentBase is the family used for a channel's payment
	// basepoint.
	KeyFamilyPaymentBase

	// KeyFamilyDelayBase is the family used for a channel's delayed
	// payment basepoint.
	KeyFamilyDelayBase

	// KeyFamilyNodeKey is the family of the node's long-term identity
	// key.
	KeyFamilyNodeKey
)

// KeyLocator names a key by its derivation coordinates rather than its
// value. This core never derives from a locator; it exists only so
// KeyDescriptor matches the shape wallets populate elsewhere.
type KeyLocator struct {
	Family KeyFamily
	Index  uint32
}

// KeyDescriptor pairs a concrete public key with the coordinates it would
// be re-derived from. Every script-construction routine in input/ uses
// PubKey directly; Locator is informational only.
type KeyDescriptor struct {
	KeyLocator

	PubKey *btcec.PublicKey
}
