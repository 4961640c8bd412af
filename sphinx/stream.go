package sphinx

import (
	"crypto/sha256"

	"golang.org/x/crypto/chacha20"
)

// generateCipherStream produces numBytes of ChaCha20 keystream under key
// with an all-zero nonce, the deterministic pad/obfuscation stream BOLT 4
// derives from each hop's rho or pad key. The cipher is unauthenticated:
// sphinx layers its own HMAC chain on top instead of relying on an AEAD
// tag per hop.
func generateCipherStream(key [sha256.Size]byte, numBytes int) []byte {
	var nonce [chacha20.NonceSize]byte

	cipher, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		panic("sphinx: chacha20 key must be 32 bytes: " + err.Error())
	}

	stream := make([]byte, numBytes)
	cipher.XORKeyStream(stream, stream)
	return stream
}

// xorBytes XORs the first min(len(a), len(b)) bytes of a and b into dst.
func xorBytes(dst, a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = a[i] ^ b[i]
	}
	return n
}
