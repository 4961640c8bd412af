package brontide

import (
	"encoding/binary"
	"net"
	"time"

	"github.com/btcsuite/btcd/btcec"
)

// MaxPayloadLength is the largest payload brontide's length-prefixed framing
// can carry: 65535 minus the two 16-byte Poly1305 tags and the 2-byte length
// field itself, per spec.md ยง4.D.
const MaxPayloadLength = (1 << 16) - 1 - 16 - 16 - 2

// lengthHeaderSize is the size of the (still-encrypted) 2-byte length
// prefix plus its MAC tag.
const lengthHeaderSize = 2 + 16

// handshakeTimeout is the wall-clock deadline set on the underlying
// connection for the whole three-act handshake; the individual acts get no
// separate budget.
const handshakeTimeout = time.Second

// Conn implements net.Conn, wrapping an underlying byte stream with the
// Noise_XK handshake and the post-handshake authenticated framed transport
// described in spec.md ยง4.C/D. Reads and writes are each totally ordered
// and use a single direction's cipherState, so no locking is needed on the
// encrypt/decrypt path itself; net.Conn's contract of allowing one
// concurrent reader and one concurrent writer is preserved via nextLength
// and haveNextLen being private to the read path.
type Conn struct {
	net.Conn

	noise *Machine

	// nextLength caches the decrypted payload length across Read calls
	// that return "need more": once the 18-byte length header has been
	// authenticated and decrypted, its plaintext value must not be
	// re-derived (doing so would require a second, illegitimate AEAD
	// call against the same nonce slot).
	nextLength  uint16
	haveNextLen bool
}

// NewConn wraps conn with a Machine that has already completed its
// handshake (SendCipher/RecvCipher populated).
func NewConn(conn net.Conn, noise *Machine) *Conn {
	return &Conn{Conn: conn, noise: noise}
}

// Dial performs an outbound Noise_XK handshake as the initiator over a
// freshly dialed TCP connection, then returns a Conn ready for framed
// reads/writes.
func Dial(localStatic *btcec.PrivateKey, remoteStatic *btcec.PublicKey, addr string, dialer func(network, addr string) (net.Conn, error)) (*Conn, error) {
	if dialer == nil {
		dialer = net.Dial
	}

	c, err := dialer("tcp", addr)
	if err != nil {
		return nil, err
	}

	noise, err := NewInitiatorMachine(localStatic, remoteStatic, DefaultEphemeralGenerator)
	if err != nil {
		c.Close()
		return nil, err
	}

	conn := &Conn{Conn: c, noise: noise}
	if err := conn.clientHandshake(); err != nil {
		c.Close()
		return nil, err
	}

	return conn, nil
}

func (c *Conn) clientHandshake() error {
	c.Conn.SetDeadline(time.Now().Add(handshakeTimeout))
	defer c.Conn.SetDeadline(time.Time{})

	actOne, err := c.noise.GenActOne()
	if err != nil {
		return err
	}
	if _, err := c.Conn.Write(actOne[:]); err != nil {
		return err
	}

	var actTwo [actTwoSize]byte
	if _, err := readFull(c.Conn, actTwo[:]); err != nil {
		return err
	}
	if err := c.noise.RecvActTwo(actTwo); err != nil {
		return err
	}

	actThree, err := c.noise.GenActThree()
	if err != nil {
		return err
	}
	if _, err := c.Conn.Write(actThree[:]); err != nil {
		return err
	}

	return nil
}

// serverHandshake runs the responder side of the handshake over an already
// accepted connection. Used by Listener.Accept.
func (c *Conn) serverHandshake() error {
	c.Conn.SetDeadline(time.Now().Add(handshakeTimeout))
	defer c.Conn.SetDeadline(time.Time{})

	var actOne [actOneSize]byte
	if _, err := readFull(c.Conn, actOne[:]); err != nil {
		return err
	}
	if err := c.noise.RecvActOne(actOne); err != nil {
		return err
	}

	actTwo, err := c.noise.GenActTwo()
	if err != nil {
		return err
	}
	if _, err := c.Conn.Write(actTwo[:]); err != nil {
		return err
	}

	var actThree [actThreeSize]byte
	if _, err := readFull(c.Conn, actThree[:]); err != nil {
		return err
	}
	if err := c.noise.RecvActThree(actThree); err != nil {
		return err
	}

	return nil
}

func readFull(r net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// RemotePub returns the remote party's static public key, recovered during
// the handshake.
func (c *Conn) RemotePub() *btcec.PublicKey {
	return c.noise.RemoteStatic()
}

// WriteMessage encrypts and frames a single already-serialized payload,
// writing it to the underlying connection. Per spec.md ยง4.D: encrypted
// 2-byte big-endian length + tag, then encrypted payload + tag.
func (c *Conn) WriteMessage(payload []byte) error {
	if len(payload) > MaxPayloadLength {
		return ErrMessageTooLarge{Length: len(payload)}
	}

	var lengthBytes [2]byte
	binary.BigEndian.PutUint16(lengthBytes[:], uint16(len(payload)))

	cipherLen := c.noise.SendCipher.Encrypt(nil, lengthBytes[:])
	cipherPayload := c.noise.SendCipher.Encrypt(nil, payload)

	if _, err := c.Conn.Write(cipherLen); err != nil {
		return err
	}
	if _, err := c.Conn.Write(cipherPayload); err != nil {
		return err
	}

	return nil
}

// ReadMessage blocks until a full frame has been read, decrypted, and
// authenticated, returning its plaintext payload. Unlike WriteMessage,
// ReadMessage does its own two-pass buffered read (spec.md ยง4.D "Read");
// since it operates directly on the blocking net.Conn rather than an
// in-memory buffer, "need more" collapses into "keep reading from the
// socket" -- the nextLength cache still matters because the header and
// body are two separate encrypted regions that must not be re-decrypted.
func (c *Conn) ReadMessage() ([]byte, error) {
	length, err := c.readLength()
	if err != nil {
		return nil, err
	}

	cipherPayload := make([]byte, int(length)+16)
	if _, err := readFull(c.Conn, cipherPayload); err != nil {
		return nil, err
	}

	plaintext, err := c.noise.RecvCipher.Decrypt(nil, cipherPayload)
	if err != nil {
		return nil, err
	}

	c.haveNextLen = false

	return plaintext, nil
}

func (c *Conn) readLength() (uint16, error) {
	if c.haveNextLen {
		return c.nextLength, nil
	}

	var cipherLen [lengthHeaderSize]byte
	if _, err := readFull(c.Conn, cipherLen[:]); err != nil {
		return 0, err
	}

	plain, err := c.noise.RecvCipher.Decrypt(nil, cipherLen[:])
	if err != nil {
		return 0, err
	}

	length := binary.BigEndian.Uint16(plain)
	c.nextLength = length
	c.haveNextLen = true

	return length, nil
}
