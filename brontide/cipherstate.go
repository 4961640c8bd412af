package brontide

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// keyRotationInterval is the number of messages sent or received on a
// single cipherState before its key is rotated, per BOLT 8.
const keyRotationInterval = 1000

// cipherState encapsulates the state for a single direction of encrypted
// communication. Directions don't share cipherStates: brontide.Machine
// holds two independent instances, one per direction, so encryption and
// decryption never race against the same nonce counter.
type cipherState struct {
	// nonce is the current nonce for this cipherState. It's a 64-bit
	// counter zero-extended to the 96-bit ChaCha20-Poly1305 nonce
	// required by the AEAD; it increments after every successful
	// operation and resets to zero on key rotation.
	nonce uint64

	// secretKey is the key currently installed in cipher.
	secretKey [32]byte

	// salt is mixed with secretKey via HKDF to produce the next
	// (salt, key) pair once nonce reaches keyRotationInterval.
	salt [32]byte

	// cipher is the cached chacha20poly1305.AEAD instance for secretKey.
	// It's rebuilt whenever secretKey is rotated.
	cipher cipherAEAD
}

// cipherAEAD is the minimal surface of cipher.AEAD that cipherState needs;
// narrowing the interface keeps this file's dependency on chacha20poly1305
// to its constructor calls in newCipherState and rotateKey.
type cipherAEAD interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

// newCipherState creates a new cipherState instance with the given salt and
// key, both typically just the output of the handshake's final HKDF
// expansion (see Machine.split).
func newCipherState(salt, key [32]byte) (*cipherState, error) {
	c := &cipherState{
		nonce:     0,
		salt:      salt,
		secretKey: key,
	}

	aead, err := chacha20poly1305.New(c.secretKey[:])
	if err != nil {
		return nil, ErrCrypto{Wrapped: err}
	}
	c.cipher = aead

	return c, nil
}

// nonceBytes returns the 96-bit little-endian nonce mandated by the Noise
// spec: 32 zero bits followed by the little-endian 64-bit counter. This is
// the one place in the whole protocol where byte order is NOT big-endian.
func (c *cipherState) nonceBytes() [12]byte {
	var n [12]byte
	binary.LittleEndian.PutUint64(n[4:], c.nonce)
	return n
}

// Encrypt returns the ciphertext (including the trailing 16-byte Poly1305
// tag) of plaintext under ad as associated data, then advances the nonce
// and rotates the key if the rotation interval has been reached.
func (c *cipherState) Encrypt(ad, plaintext []byte) []byte {
	nonce := c.nonceBytes()
	ciphertext := c.cipher.Seal(nil, nonce[:], plaintext, ad)

	c.advance()

	return ciphertext
}

// Decrypt authenticates ciphertext (which must include the trailing 16-byte
// tag) against ad, returning ErrMacMismatch on failure. On success it
// advances the nonce and rotates the key exactly as Encrypt does.
func (c *cipherState) Decrypt(ad, ciphertext []byte) ([]byte, error) {
	nonce := c.nonceBytes()

	plaintext, err := c.cipher.Open(nil, nonce[:], ciphertext, ad)
	if err != nil {
		return nil, ErrMacMismatch{}
	}

	c.advance()

	return plaintext, nil
}

// advance is the single choke point for the "increment nonce, rotate key
// every 1000 messages" invariant (spec.md ยง4.A / 9: "implement as a single
// advance() operation... rather than scattering the check at every call
// site"). It's called unconditionally after every successful AEAD
// operation.
func (c *cipherState) advance() {
	c.nonce++

	if c.nonce == keyRotationInterval {
		c.rotateKey()
	}
}

// rotateKey computes (salt', k') = HKDF(salt, k, 64), installs k' as the new
// secretKey, salt' as the new salt, rebuilds the cached AEAD, and resets the
// nonce counter to zero.
func (c *cipherState) rotateKey() {
	h := hkdf.New(sha256New, c.secretKey[:], c.salt[:], nil)

	var (
		nextSalt [32]byte
		nextKey  [32]byte
	)
	// A single Read of 64 bytes from the HKDF reader is equivalent to
	// expanding one 64-byte block: the first 32 bytes become the next
	// salt, the last 32 the next key.
	okm := make([]byte, 64)
	if _, err := h.Read(okm); err != nil {
		// hkdf.Reader only errors once the expansion limit (255 *
		// hash size) is exceeded; 64 bytes never does.
		panic(err)
	}
	copy(nextSalt[:], okm[:32])
	copy(nextKey[:], okm[32:])

	c.salt = nextSalt
	c.secretKey = nextKey

	aead, err := chacha20poly1305.New(c.secretKey[:])
	if err != nil {
		panic(err)
	}
	c.cipher = aead

	c.nonce = 0
}
