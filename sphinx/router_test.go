package sphinx

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec"
)

func genTestKey(t *testing.T, seed byte) *btcec.PrivateKey {
	t.Helper()
	raw := bytes.Repeat([]byte{seed}, 32)
	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), raw)
	return priv
}

// buildTestRoute constructs a path of numHops distinct keys and matching
// HopData, each naming the next hop's short channel id.
func buildTestRoute(t *testing.T, numHops int) ([]*btcec.PrivateKey, []*btcec.PublicKey, []HopData) {
	t.Helper()

	privKeys := make([]*btcec.PrivateKey, numHops)
	pubKeys := make([]*btcec.PublicKey, numHops)
	hopsData := make([]HopData, numHops)

	for i := 0; i < numHops; i++ {
		privKeys[i] = genTestKey(t, byte(i+1))
		pubKeys[i] = privKeys[i].PubKey()

		hopsData[i] = HopData{
			Realm:         0,
			ForwardAmount: uint64(1000 * (numHops - i)),
			OutgoingCLTV:  uint32(100 + i),
		}
		hopsData[i].NextAddress[7] = byte(i + 1)
	}

	return privKeys, pubKeys, hopsData
}

// TestOnionConstructAndPeelFullRoute walks a constructed packet through
// every hop of a 5-hop route (spec.md ยง8 scenario 4's hop count),
// checking each hop recovers its own HopData and that the chain
// terminates with ExitNode at the last hop.
func TestOnionConstructAndPeelFullRoute(t *testing.T) {
	const numHops = 5
	privKeys, pubKeys, hopsData := buildTestRoute(t, numHops)

	sessionKey := genTestKey(t, 0xFF)
	associatedData := []byte("payment hash goes here!!!!!!!!!")

	packet, err := ConstructOnionPacket(sessionKey, pubKeys, hopsData, associatedData)
	if err != nil {
		t.Fatalf("ConstructOnionPacket: %v", err)
	}

	var encoded bytes.Buffer
	if err := packet.Encode(&encoded); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if encoded.Len() != PacketSize {
		t.Fatalf("packet size mismatch: got %d want %d", encoded.Len(), PacketSize)
	}

	current := packet
	for i := 0; i < numHops; i++ {
		processed, err := ProcessOnionPacket(current, privKeys[i], associatedData)
		if err != nil {
			t.Fatalf("hop %d: ProcessOnionPacket: %v", i, err)
		}

		if processed.HopData.ForwardAmount != hopsData[i].ForwardAmount {
			t.Fatalf("hop %d: forward amount mismatch: got %d want %d",
				i, processed.HopData.ForwardAmount, hopsData[i].ForwardAmount)
		}
		if processed.HopData.OutgoingCLTV != hopsData[i].OutgoingCLTV {
			t.Fatalf("hop %d: cltv mismatch: got %d want %d",
				i, processed.HopData.OutgoingCLTV, hopsData[i].OutgoingCLTV)
		}

		if i == numHops-1 {
			if processed.Action != ExitNode {
				t.Fatalf("final hop: expected ExitNode, got %v", processed.Action)
			}
			continue
		}

		if processed.Action != MoreHops {
			t.Fatalf("hop %d: expected MoreHops, got %v", i, processed.Action)
		}

		// Every intermediate packet must stay the same fixed size as
		// the original -- spec.md's "indistinguishable from a full
		// 20-hop packet" invariant.
		var nextEncoded bytes.Buffer
		if err := processed.NextPacket.Encode(&nextEncoded); err != nil {
			t.Fatalf("hop %d: Encode next packet: %v", i, err)
		}
		if nextEncoded.Len() != PacketSize {
			t.Fatalf("hop %d: next packet size mismatch: got %d want %d",
				i, nextEncoded.Len(), PacketSize)
		}

		current = processed.NextPacket
	}
}

// TestOnionAssociatedDataMismatch verifies that peeling with a different
// associated data than was used at construction flips the outer HMAC
// check, per spec.md ยง8's "changing ad flips the outer HMAC check"
// invariant.
func TestOnionAssociatedDataMismatch(t *testing.T) {
	privKeys, pubKeys, hopsData := buildTestRoute(t, 3)
	sessionKey := genTestKey(t, 0xAA)

	packet, err := ConstructOnionPacket(sessionKey, pubKeys, hopsData, []byte("original-ad"))
	if err != nil {
		t.Fatalf("ConstructOnionPacket: %v", err)
	}

	if _, err := ProcessOnionPacket(packet, privKeys[0], []byte("different-ad")); err == nil {
		t.Fatalf("expected HMAC mismatch with wrong associated data")
	}

	if _, err := ProcessOnionPacket(packet, privKeys[0], []byte("original-ad")); err != nil {
		t.Fatalf("unexpected error with correct associated data: %v", err)
	}
}

// TestOnionMaxHops ensures a route at the maximum hop count is accepted
// and one beyond it is rejected.
func TestOnionMaxHops(t *testing.T) {
	privKeys, pubKeys, hopsData := buildTestRoute(t, NumMaxHops)
	sessionKey := genTestKey(t, 0x01)

	if _, err := ConstructOnionPacket(sessionKey, pubKeys, hopsData, nil); err != nil {
		t.Fatalf("ConstructOnionPacket at max hops: %v", err)
	}

	_, extraPub, extraData := buildTestRoute(t, NumMaxHops+1)
	if _, err := ConstructOnionPacket(sessionKey, extraPub, extraData, nil); err == nil {
		t.Fatalf("expected error exceeding max hop count")
	}

	_ = privKeys
}

// TestOnionCorruptedHMACRejected ensures a bit-flipped header MAC is
// rejected rather than silently processed.
func TestOnionCorruptedHMACRejected(t *testing.T) {
	privKeys, pubKeys, hopsData := buildTestRoute(t, 2)
	sessionKey := genTestKey(t, 0x02)

	packet, err := ConstructOnionPacket(sessionKey, pubKeys, hopsData, nil)
	if err != nil {
		t.Fatalf("ConstructOnionPacket: %v", err)
	}

	packet.HeaderMAC[0] ^= 0xFF

	if _, err := ProcessOnionPacket(packet, privKeys[0], nil); err == nil {
		t.Fatalf("expected HMAC mismatch from corrupted header MAC")
	}
}
