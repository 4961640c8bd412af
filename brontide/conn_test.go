package brontide

import (
	"bytes"
	"net"
	"testing"
)

// handshakePair builds a connected, fully-handshaken pair of *Conn over an
// in-memory net.Pipe, for exercising the framed transport without touching
// a real socket.
func handshakePair(t *testing.T) (initiatorConn, responderConn *Conn) {
	t.Helper()

	initStaticKey := mustPrivKey(t, bolt8InitiatorStaticKey)
	respStaticKey := mustPrivKey(t, bolt8ResponderStaticKey)

	clientRaw, serverRaw := net.Pipe()

	initiator, err := NewInitiatorMachine(
		initStaticKey, respStaticKey.PubKey(), DefaultEphemeralGenerator,
	)
	if err != nil {
		t.Fatalf("NewInitiatorMachine: %v", err)
	}
	responder := NewResponderMachine(respStaticKey, nil)

	clientConn := &Conn{Conn: clientRaw, noise: initiator}
	serverConn := &Conn{Conn: serverRaw, noise: responder}

	errCh := make(chan error, 1)
	go func() { errCh <- serverConn.serverHandshake() }()

	if err := clientConn.clientHandshake(); err != nil {
		t.Fatalf("client handshake: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("server handshake: %v", err)
	}

	return clientConn, serverConn
}

// TestConnRoundTrip verifies that a message written by one side of a
// handshaken pair is read back identically by the other, across multiple
// messages (exercising the monotonic per-direction nonce).
func TestConnRoundTrip(t *testing.T) {
	initiator, responder := handshakePair(t)
	defer initiator.Close()
	defer responder.Close()

	messages := [][]byte{
		[]byte("hello"),
		[]byte(""),
		bytes.Repeat([]byte{0xAB}, 4096),
	}

	for _, msg := range messages {
		errCh := make(chan error, 1)
		go func(m []byte) { errCh <- initiator.WriteMessage(m) }(msg)

		got, err := responder.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage: %v", err)
		}
		if err := <-errCh; err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}
		if !bytes.Equal(got, msg) {
			t.Fatalf("round trip mismatch: got %x want %x", got, msg)
		}
	}
}

// TestConnMessageTooLarge ensures payloads beyond MaxPayloadLength are
// rejected before ever touching the wire.
func TestConnMessageTooLarge(t *testing.T) {
	initiator, responder := handshakePair(t)
	defer initiator.Close()
	defer responder.Close()

	oversized := make([]byte, MaxPayloadLength+1)
	err := initiator.WriteMessage(oversized)
	if _, ok := err.(ErrMessageTooLarge); !ok {
		t.Fatalf("expected ErrMessageTooLarge, got %T: %v", err, err)
	}
}
