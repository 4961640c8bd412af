package brontide

import (
	"crypto/sha256"
	"hash"

	goerrors "github.com/go-errors/errors"
)

// sha256New adapts crypto/sha256.New to the func() hash.Hash signature HKDF
// expects.
func sha256New() hash.Hash {
	return sha256.New()
}

// ErrMacMismatch is returned whenever an AEAD tag fails to authenticate,
// whether during the handshake (act decryption) or steady-state transport
// (length or payload). It's always fatal: the connection carrying it must
// be torn down, per spec.md ยง7 kind 2.
type ErrMacMismatch struct{}

func (e ErrMacMismatch) Error() string {
	return "chacharypoly1305: message authentication failed"
}

// ErrCrypto wraps a lower-level cryptographic failure (secp256k1 parse or
// validation error, HKDF length mismatch) with a stack trace. spec.md's open
// question about call sites that wrapped these as IO is resolved per its
// recommendation: categorize as Crypto.
type ErrCrypto struct {
	Wrapped error
}

func (e ErrCrypto) Error() string {
	return "brontide: crypto failure: " + e.Wrapped.Error()
}

func (e ErrCrypto) Unwrap() error { return e.Wrapped }

// wrapCrypto stack-traces err via go-errors, in the style the teacher uses
// for peer lifecycle failures (daemon/server.go's errors.Errorf), and
// returns it as the typed ErrCrypto kind.
func wrapCrypto(err error) error {
	return ErrCrypto{Wrapped: goerrors.Wrap(err, 1)}
}

// ErrUnknownHandshakeVersion is returned when an act's leading version byte
// is not 0.
type ErrUnknownHandshakeVersion struct {
	Version byte
}

func (e ErrUnknownHandshakeVersion) Error() string {
	return "brontide: unknown handshake version"
}

// ErrMessageTooLarge is returned by Conn.WriteMessage when the serialized
// payload exceeds MaxPayloadLength (2^16 - 1 - 2 - 2*16).
type ErrMessageTooLarge struct {
	Length int
}

func (e ErrMessageTooLarge) Error() string {
	return "brontide: message payload too large to fit in a single frame"
}
