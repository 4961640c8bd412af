package brontide

import (
	"net"

	"github.com/btcsuite/btcd/btcec"
)

// Listener wraps a net.Listener, running the responder side of the
// Noise_XK handshake on every accepted connection before handing it back
// to the caller. A handshake failure (bad MAC, bad version byte, timeout)
// closes the raw socket and is never surfaced with any application-level
// error frame, per spec.md ยง7: "a failed handshake closes the socket
// silently (no error message can be authenticated pre-handshake)".
type Listener struct {
	net.Listener

	localStatic *btcec.PrivateKey
}

// NewListener wraps l, using localStatic as the responder's static key for
// every inbound handshake.
func NewListener(localStatic *btcec.PrivateKey, l net.Listener) *Listener {
	return &Listener{Listener: l, localStatic: localStatic}
}

// Accept blocks until an inbound connection completes the responder side of
// the handshake, then returns it as a *Conn. Failed handshakes are retried
// transparently against the next incoming connection rather than returned
// to the caller, mirroring the fire-and-forget nature of a TCP listener.
func (l *Listener) Accept() (net.Conn, error) {
	for {
		conn, err := l.Listener.Accept()
		if err != nil {
			return nil, err
		}

		brontideConn := &Conn{
			Conn:  conn,
			noise: NewResponderMachine(l.localStatic, nil),
		}

		if err := brontideConn.serverHandshake(); err != nil {
			log.Debugf("Inbound brontide handshake from %v failed: %v",
				conn.RemoteAddr(), err)
			conn.Close()
			continue
		}

		return brontideConn, nil
	}
}
