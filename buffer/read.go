package buffer

import (
	"github.com/brontidewire/lncore/brontide"
)

// ReadSize represents the size of the maximum message that can be read off the
// wire by brontide. The buffer is used to hold the ciphertext while the
// brontide state machine decrypts the message.
const ReadSize = brontide.MaxPayloadLength + 16

// Read is a static byte array sized to the maximum-allowed Lightning message
// size, plus 16 bytes for the MAC.
type Read [ReadSize]byte

// Recycle zeroes the Read, making it fresh for another use.
func (b *Read) Recycle() {
	RecycleSlice(b[:])
}

// RecycleSlice zeroes every byte of b in place so a pooled buffer never
// leaks a previous message's plaintext or key material to its next user.
func RecycleSlice(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
