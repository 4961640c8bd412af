package brontide

import (
	"crypto/sha256"

	"golang.org/x/crypto/hkdf"
)

// protocolName is the exact Noise protocol name mixed into the initial
// chaining key and handshake digest, per BOLT 8.
const protocolName = "Noise_XK_secp256k1_ChaChaPoly_SHA256"

// prologue is mixed into the handshake digest before any key material,
// binding the handshake to "this is a Lightning peer connection".
const prologue = "lightning"

// symmetricState is the running HKDF ratchet that drives a Noise_XK
// handshake: a chaining key used to derive fresh cipher keys, and a
// handshake digest used as associated data for every AEAD call performed
// during the handshake.
type symmetricState struct {
	cipherState

	// chainingKey is the rolling secret fed into every mix_key HKDF
	// extract/expand.
	chainingKey [32]byte

	// handshakeDigest accumulates a running hash of every value
	// exchanged in the handshake. It's bound into every encrypt/decrypt
	// call as associated data, and is itself updated with the resulting
	// ciphertext+tag after each call (never with the plaintext).
	handshakeDigest [32]byte
}

// newSymmetricState initializes chainingKey and handshakeDigest both to
// SHA-256(protocolName), matching Noise's init for protocol names longer
// than the hash length would require truncation -- here the name is
// exactly hashed rather than padded, since the spec calls for an initial
// mix_hash of the protocol name.
func newSymmetricState() *symmetricState {
	d := sha256.Sum256([]byte(protocolName))

	s := &symmetricState{
		chainingKey:     d,
		handshakeDigest: d,
	}

	return s
}

// mixHash updates the handshake digest as SHA-256(handshakeDigest || data).
func (s *symmetricState) mixHash(data []byte) {
	h := sha256.New()
	h.Write(s.handshakeDigest[:])
	h.Write(data)

	var next [32]byte
	copy(next[:], h.Sum(nil))
	s.handshakeDigest = next
}

// mixKey performs HKDF-extract(salt=chainingKey, ikm=input), then expands to
// 64 bytes: the first 32 become the new chainingKey, the last 32 become a
// fresh temp key installed into a brand new cipherState with nonce 0.
func (s *symmetricState) mixKey(input []byte) error {
	h := hkdf.New(sha256New, input, s.chainingKey[:], nil)

	okm := make([]byte, 64)
	if _, err := h.Read(okm); err != nil {
		return wrapCrypto(err)
	}

	var (
		nextChainingKey [32]byte
		tempKey         [32]byte
	)
	copy(nextChainingKey[:], okm[:32])
	copy(tempKey[:], okm[32:])

	s.chainingKey = nextChainingKey

	aead, err := newCipherState(s.chainingKey, tempKey)
	if err != nil {
		return err
	}
	s.cipherState = *aead

	return nil
}

// encryptAndHash encrypts plaintext (which is "" for every act-packet tag in
// this protocol) under the current handshake digest as associated data,
// then mixes the resulting ciphertext+tag into the digest.
func (s *symmetricState) encryptAndHash(plaintext []byte) []byte {
	ciphertext := s.cipherState.Encrypt(s.handshakeDigest[:], plaintext)
	s.mixHash(ciphertext)
	return ciphertext
}

// decryptAndHash authenticates and decrypts ciphertext (including its
// trailing tag) under the handshake digest as associated data. Per spec.md
// ยง4.B, the digest is mixed with the ciphertext regardless of whether
// decryption succeeds or fails -- we snapshot the input, run the AEAD, and
// only then fold it into the digest, so the hash update never depends on
// the plaintext it guards.
func (s *symmetricState) decryptAndHash(ciphertext []byte) ([]byte, error) {
	plaintext, err := s.cipherState.Decrypt(s.handshakeDigest[:], ciphertext)

	s.mixHash(ciphertext)

	if err != nil {
		return nil, err
	}
	return plaintext, nil
}
