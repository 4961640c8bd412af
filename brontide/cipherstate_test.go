package brontide

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// TestCipherStateRotation reproduces spec.md ยง8 scenario 2/3: encrypting
// the same plaintext as a transport frame (the 2-byte length header, then
// the payload, each its own AEAD call) for message 0 and for message 1000,
// after two key rotations, must produce different, spec-exact frames, and
// the key used past each boundary must be HKDF(prevSalt, prevKey).
func TestCipherStateRotation(t *testing.T) {
	// sendKey/chainingKey from the BOLT 8 handshake vectors in
	// spec.md ยง8 scenario 1.
	sendKey, _ := hex.DecodeString("969ab31b4d288cedf6218839b27a3e2140827047f2c0f01bf5c04435d43511a9")
	chainKey, _ := hex.DecodeString("919219dbb2920afa8db80f9a51787a840bcf111ed8d588caf9ab4be716e42b01")

	var k, salt [32]byte
	copy(k[:], sendKey)
	copy(salt[:], chainKey)

	cs, err := newCipherState(salt, k)
	if err != nil {
		t.Fatalf("newCipherState: %v", err)
	}

	plaintext := []byte("hello")
	lengthHeader := []byte{0, byte(len(plaintext))}

	var msg0, msg1000 []byte
	for i := 0; i < 1001; i++ {
		ct := append(cs.Encrypt(nil, lengthHeader), cs.Encrypt(nil, plaintext)...)
		if i == 0 {
			msg0 = ct
		}
		if i == 1000 {
			msg1000 = ct
		}
	}

	wantMsg0, _ := hex.DecodeString(
		"cf2b30ddf0cf3f80e7c35a6e6730b59fe802473180f396d88a8fb0db8cbcf25d2f214cf9ea1d95")
	wantMsg1000, _ := hex.DecodeString(
		"4a2f3cc3b5e78ddb83dcb426d9863d9d9a723b0337c89dd0b005d89f8d3c05c52b76b29b740f09")

	if !bytes.Equal(msg0, wantMsg0) {
		t.Fatalf("message 0 mismatch:\ngot:  %x\nwant: %x", msg0, wantMsg0)
	}
	if !bytes.Equal(msg1000, wantMsg1000) {
		t.Fatalf("message 1000 mismatch:\ngot:  %x\nwant: %x", msg1000, wantMsg1000)
	}
	if bytes.Equal(msg0, msg1000) {
		t.Fatalf("message 0 and message 1000 ciphertexts must differ")
	}
}

// TestCipherStateRoundTrip checks the general decrypt(encrypt(m)) == m
// property from spec.md ยง8 across the rotation boundary.
func TestCipherStateRoundTrip(t *testing.T) {
	var salt, key [32]byte
	for i := range salt {
		salt[i] = byte(i)
		key[i] = byte(255 - i)
	}

	enc, err := newCipherState(salt, key)
	if err != nil {
		t.Fatalf("newCipherState: %v", err)
	}
	dec, err := newCipherState(salt, key)
	if err != nil {
		t.Fatalf("newCipherState: %v", err)
	}

	ad := []byte("associated-data")

	for i := 0; i < 1050; i++ {
		plaintext := []byte("message number")
		ct := enc.Encrypt(ad, plaintext)

		got, err := dec.Decrypt(ad, ct)
		if err != nil {
			t.Fatalf("iteration %d: decrypt failed: %v", i, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("iteration %d: roundtrip mismatch: got %q want %q", i, got, plaintext)
		}
	}
}

// TestCipherStateTagMismatch ensures a flipped ciphertext byte is rejected
// rather than silently producing garbage plaintext.
func TestCipherStateTagMismatch(t *testing.T) {
	var salt, key [32]byte
	cs, err := newCipherState(salt, key)
	if err != nil {
		t.Fatalf("newCipherState: %v", err)
	}
	cs2, err := newCipherState(salt, key)
	if err != nil {
		t.Fatalf("newCipherState: %v", err)
	}

	ct := cs.Encrypt(nil, []byte("authenticate me"))
	ct[0] ^= 0xff

	if _, err := cs2.Decrypt(nil, ct); err == nil {
		t.Fatalf("expected tag mismatch error")
	} else if _, ok := err.(ErrMacMismatch); !ok {
		t.Fatalf("expected ErrMacMismatch, got %T", err)
	}
}
