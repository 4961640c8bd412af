// Package sphinx builds and peels the fixed-size onion routing packets
// that carry a payment's route one hop at a time without any hop but the
// sender learning the full path, per BOLT 4.
package sphinx

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec"
)

const (
	// NumMaxHops is the maximum path length a single packet can encode.
	NumMaxHops = 20

	// HopDataSize is the size in bytes of a single hop's plaintext
	// routing instructions, per spec.md ยง3 ("Hop data").
	HopDataSize = 33

	// hopSlotSize is the size of one hop's slot within the routing info
	// buffer: the hop data plus the HMAC authenticating everything past
	// it.
	hopSlotSize = HopDataSize + sha256.Size

	// RoutingInfoSize is the fixed size of the routing information
	// block: twenty hop slots, real or padding, indistinguishable from
	// one another.
	RoutingInfoSize = NumMaxHops * hopSlotSize

	// realmByte identifies the Bitcoin payment realm; it's the only
	// realm this core understands.
	realmByte = 0x00

	// onionVersion is the only version this core emits or accepts.
	onionVersion = 0x00

	// PacketSize is the fixed wire size of an onion packet: version,
	// compressed ephemeral pubkey, routing info, outer HMAC.
	PacketSize = 1 + 33 + RoutingInfoSize + sha256.Size
)

// HopData is the plaintext routing instruction one hop extracts from its
// slot in the packet: where to forward next, how much, and by when.
type HopData struct {
	Realm         byte
	NextAddress   [8]byte
	ForwardAmount uint64
	OutgoingCLTV  uint32
}

// Encode serializes HopData into its fixed 33-byte wire form: realm,
// 8-byte short channel id, 8-byte amount, 4-byte CLTV, then 12 zero
// padding bytes.
func (hd *HopData) Encode(w io.Writer) error {
	if _, err := w.Write([]byte{hd.Realm}); err != nil {
		return err
	}
	if _, err := w.Write(hd.NextAddress[:]); err != nil {
		return err
	}

	var amountBytes [8]byte
	putUint64(amountBytes[:], hd.ForwardAmount)
	if _, err := w.Write(amountBytes[:]); err != nil {
		return err
	}

	var cltvBytes [4]byte
	putUint32(cltvBytes[:], hd.OutgoingCLTV)
	if _, err := w.Write(cltvBytes[:]); err != nil {
		return err
	}

	var padding [12]byte
	_, err := w.Write(padding[:])
	return err
}

// Decode parses a 33-byte hop data slot.
func (hd *HopData) Decode(r io.Reader) error {
	var buf [HopDataSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}

	hd.Realm = buf[0]
	copy(hd.NextAddress[:], buf[1:9])
	hd.ForwardAmount = getUint64(buf[9:17])
	hd.OutgoingCLTV = getUint32(buf[17:21])
	return nil
}

// OnionPacket is the fixed-size packet exchanged on the wire inside an
// UpdateAddHTLC's onion blob.
type OnionPacket struct {
	Version      byte
	EphemeralKey *btcec.PublicKey
	RoutingInfo  [RoutingInfoSize]byte
	HeaderMAC    [sha256.Size]byte
}

// Encode serializes the packet to its 1366-byte wire form.
func (p *OnionPacket) Encode(w io.Writer) error {
	if _, err := w.Write([]byte{p.Version}); err != nil {
		return err
	}
	if _, err := w.Write(p.EphemeralKey.SerializeCompressed()); err != nil {
		return err
	}
	if _, err := w.Write(p.RoutingInfo[:]); err != nil {
		return err
	}
	_, err := w.Write(p.HeaderMAC[:])
	return err
}

// Decode parses a 1366-byte onion packet.
func (p *OnionPacket) Decode(r io.Reader) error {
	var versionByte [1]byte
	if _, err := io.ReadFull(r, versionByte[:]); err != nil {
		return err
	}
	p.Version = versionByte[0]

	var rawKey [33]byte
	if _, err := io.ReadFull(r, rawKey[:]); err != nil {
		return err
	}
	pubKey, err := btcec.ParsePubKey(rawKey[:], btcec.S256())
	if err != nil {
		return fmt.Errorf("sphinx: invalid ephemeral key: %v", err)
	}
	p.EphemeralKey = pubKey

	if _, err := io.ReadFull(r, p.RoutingInfo[:]); err != nil {
		return err
	}
	_, err = io.ReadFull(r, p.HeaderMAC[:])
	return err
}

func putUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func putUint32(b []byte, v uint32) {
	for i := 3; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func getUint32(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

// generateKey derives a purpose-specific key from a shared secret via
// HMAC, the same rho/mu/um/pad construction BOLT 4 uses throughout.
func generateKey(keyType string, sharedSecret [sha256.Size]byte) [sha256.Size]byte {
	mac := hmac.New(sha256.New, []byte(keyType))
	mac.Write(sharedSecret[:])

	var key [sha256.Size]byte
	copy(key[:], mac.Sum(nil))
	return key
}

var (
	keyTypeRho = "rho"
	keyTypeMu  = "mu"
	keyTypeUm  = "um"
	keyTypePad = "pad"
)

// computeHMAC computes the HMAC-SHA256 of (msg || associatedData) keyed
// by muKey, the outer-HMAC construction BOLT 4 chains across every hop.
func computeHMAC(muKey [sha256.Size]byte, msg, associatedData []byte) [sha256.Size]byte {
	mac := hmac.New(sha256.New, muKey[:])
	mac.Write(msg)
	mac.Write(associatedData)

	var h [sha256.Size]byte
	copy(h[:], mac.Sum(nil))
	return h
}

func hmacsEqual(a, b [sha256.Size]byte) bool {
	return hmac.Equal(a[:], b[:])
}

var zeroHMAC [sha256.Size]byte

func isZeroHMAC(h [sha256.Size]byte) bool {
	return bytes.Equal(h[:], zeroHMAC[:])
}
