package sphinx

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
)

// sharedSecret is the per-hop secret derived from an ECDH exchange
// between the session's (blinded) ephemeral key and a hop's static key.
type sharedSecret [sha256.Size]byte

// ecdh performs the Diffie-Hellman exchange and hashes the resulting
// point's compressed serialization, the same derivation brontide uses
// for its handshake.
func ecdh(priv *btcec.PrivateKey, pub *btcec.PublicKey) sharedSecret {
	var point btcec.PublicKey
	x, y := btcec.S256().ScalarMult(pub.X, pub.Y, priv.D.Bytes())
	point.X, point.Y = x, y

	return sha256.Sum256(point.SerializeCompressed())
}

// blind derives the next ephemeral private key in the chain by
// multiplying the current one's scalar by a blinding factor computed
// from the current ephemeral public key and the shared secret it
// produced, modulo the curve order.
func blind(priv *btcec.PrivateKey, factor [sha256.Size]byte) *btcec.PrivateKey {
	curve := btcec.S256()

	d := new(big.Int).Mul(priv.D, new(big.Int).SetBytes(factor[:]))
	d.Mod(d, curve.N)

	blinded, _ := btcec.PrivKeyFromBytes(curve, d.Bytes())
	return blinded
}

// blindingFactor computes SHA256(pubkey.compressed || sharedSecret), the
// scalar each hop uses to advance the ephemeral key chain without ever
// learning the session's original scalar.
func blindingFactor(pub *btcec.PublicKey, secret sharedSecret) [sha256.Size]byte {
	h := sha256.New()
	h.Write(pub.SerializeCompressed())
	h.Write(secret[:])

	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// generateHeaderPadding derives the initial all-pseudorandom routing info
// buffer that ConstructOnionPacket starts from, keyed off the
// first hop's shared secret with the "pad" label.
func generateHeaderPadding(secret sharedSecret) []byte {
	return generateCipherStream(generateKey(keyTypePad, secret), RoutingInfoSize)
}

// generateFiller re-derives, for every intermediate hop, the rho stream
// that hop will XOR over the shrinking routing info, and accumulates the
// bytes that fall beyond where real data ends. Appending this filler at
// construction time is what keeps a peeled packet at every hop
// bit-indistinguishable from a fresh twenty-hop packet, per spec.md
// ยง4.F's construction step 2.
func generateFiller(secrets []sharedSecret) []byte {
	numHops := len(secrets)
	filler := make([]byte, (numHops-1)*hopSlotSize)

	for i := 0; i < numHops-1; i++ {
		streamKey := generateKey(keyTypeRho, secrets[i])
		stream := generateCipherStream(streamKey, RoutingInfoSize+hopSlotSize)

		// fillerStart walks backward by one slot per iteration;
		// fillerEnd stays pinned one slot past the routing info
		// buffer. Re-XORing the same leading bytes on every
		// iteration is what makes generated fillers exactly match
		// the bytes an intermediate hop's own rho-stream XOR
		// produces when it decrypts past the real hop data -- the
		// same construction the teacher's reference implementation
		// uses, generalized to the 65-byte slot size spec.md
		// mandates.
		fillerStart := RoutingInfoSize - (i * hopSlotSize)
		fillerEnd := RoutingInfoSize + hopSlotSize

		xorBytes(filler, filler, stream[fillerStart:fillerEnd])
	}

	return filler
}

// ConstructOnionPacket builds a fixed-size onion packet that routes a
// payment along path, carrying hopsData[i] as the instructions the i-th
// hop extracts. sessionKey is a freshly generated, single-use scalar;
// associatedData (typically the payment hash) is bound into every hop's
// HMAC so it can't be detached from the packet.
func ConstructOnionPacket(sessionKey *btcec.PrivateKey, path []*btcec.PublicKey,
	hopsData []HopData, associatedData []byte) (*OnionPacket, error) {

	numHops := len(path)
	if numHops == 0 {
		return nil, fmt.Errorf("sphinx: path must contain at least one hop")
	}
	if numHops > NumMaxHops {
		return nil, fmt.Errorf("sphinx: path length %d exceeds maximum %d", numHops, NumMaxHops)
	}
	if len(hopsData) != numHops {
		return nil, fmt.Errorf("sphinx: hop data count %d doesn't match path length %d",
			len(hopsData), numHops)
	}

	ephemeralKeys := make([]*btcec.PublicKey, numHops)
	secrets := make([]sharedSecret, numHops)

	currentKey := sessionKey
	for i, hopPub := range path {
		ephemeralKeys[i] = currentKey.PubKey()

		secret := ecdh(currentKey, hopPub)
		secrets[i] = secret

		factor := blindingFactor(currentKey.PubKey(), secret)
		currentKey = blind(currentKey, factor)
	}

	routingInfo := generateHeaderPadding(secrets[0])
	filler := generateFiller(secrets)

	var nextHMAC [sha256.Size]byte

	for i := numHops - 1; i >= 0; i-- {
		rhoKey := generateKey(keyTypeRho, secrets[i])
		muKey := generateKey(keyTypeMu, secrets[i])

		var hopBuf bytes.Buffer
		if err := hopsData[i].Encode(&hopBuf); err != nil {
			return nil, err
		}
		hopBuf.Write(nextHMAC[:])

		// Right-shift the routing info by one slot and splice in this
		// hop's (hop_data || prev_hmac).
		shifted := make([]byte, RoutingInfoSize)
		copy(shifted[hopSlotSize:], routingInfo[:RoutingInfoSize-hopSlotSize])
		copy(shifted, hopBuf.Bytes())

		stream := generateCipherStream(rhoKey, RoutingInfoSize)
		xorBytes(shifted, shifted, stream)

		if i == numHops-1 {
			copy(shifted[RoutingInfoSize-len(filler):], filler)
		}

		routingInfo = shifted
		nextHMAC = computeHMAC(muKey, routingInfo, associatedData)
	}

	packet := &OnionPacket{
		Version:      onionVersion,
		EphemeralKey: ephemeralKeys[0],
		HeaderMAC:    nextHMAC,
	}
	copy(packet.RoutingInfo[:], routingInfo)

	return packet, nil
}

// ProcessAction describes what the peeling hop should do with a
// processed packet.
type ProcessAction int

const (
	// MoreHops means the unwrapped HopData names a next hop to forward
	// to, and NextPacket carries the packet to send it.
	MoreHops ProcessAction = iota

	// ExitNode means this hop is the payment's final destination: the
	// HMAC chain terminated in an all-zero value.
	ExitNode
)

// ProcessedPacket is the result of peeling one layer off an OnionPacket.
type ProcessedPacket struct {
	Action     ProcessAction
	HopData    HopData
	NextPacket *OnionPacket
}

// ProcessOnionPacket peels a single layer off packet using hopPrivKey,
// verifying the outer HMAC before trusting anything it decrypts, per
// spec.md ยง4.F's processing steps.
func ProcessOnionPacket(packet *OnionPacket, hopPrivKey *btcec.PrivateKey,
	associatedData []byte) (*ProcessedPacket, error) {

	if packet.Version != onionVersion {
		return nil, fmt.Errorf("sphinx: unknown onion version %d", packet.Version)
	}

	secret := ecdh(hopPrivKey, packet.EphemeralKey)

	muKey := generateKey(keyTypeMu, secret)
	expectedHMAC := computeHMAC(muKey, packet.RoutingInfo[:], associatedData)
	if !hmacsEqual(expectedHMAC, packet.HeaderMAC) {
		return nil, fmt.Errorf("sphinx: header HMAC mismatch")
	}

	// Append a fresh hop-slot's worth of zeroes and stream-decrypt the
	// whole buffer so an exit node's trailing filler decrypts to
	// something indistinguishable from a padded packet.
	padded := make([]byte, RoutingInfoSize+hopSlotSize)
	copy(padded, packet.RoutingInfo[:])

	rhoKey := generateKey(keyTypeRho, secret)
	stream := generateCipherStream(rhoKey, RoutingInfoSize+hopSlotSize)
	xorBytes(padded, padded, stream)

	var hopData HopData
	if err := hopData.Decode(bytes.NewReader(padded[:HopDataSize])); err != nil {
		return nil, err
	}

	var nextHMAC [sha256.Size]byte
	copy(nextHMAC[:], padded[HopDataSize:hopSlotSize])

	if isZeroHMAC(nextHMAC) {
		return &ProcessedPacket{Action: ExitNode, HopData: hopData}, nil
	}

	factor := blindingFactor(packet.EphemeralKey, secret)
	nextKey := blindPublic(packet.EphemeralKey, factor)

	nextPacket := &OnionPacket{
		Version:      onionVersion,
		EphemeralKey: nextKey,
		HeaderMAC:    nextHMAC,
	}
	copy(nextPacket.RoutingInfo[:], padded[hopSlotSize:])

	return &ProcessedPacket{
		Action:     MoreHops,
		HopData:    hopData,
		NextPacket: nextPacket,
	}, nil
}

// blindPublic advances an ephemeral public key by the same blinding
// factor blind() applies on the private-key side, so the next hop can
// recover the same point the constructing node derived.
func blindPublic(pub *btcec.PublicKey, factor [sha256.Size]byte) *btcec.PublicKey {
	curve := btcec.S256()

	x, y := curve.ScalarMult(pub.X, pub.Y, factor[:])

	return &btcec.PublicKey{Curve: curve, X: x, Y: y}
}
