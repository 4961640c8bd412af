package lnwire

import (
	"encoding/hex"
	"net"

	"github.com/btcsuite/btcd/btcec"
)

// NetAddress couples a node's identity key to the network address it can be
// reached at, the shape every dial and accept path in this module passes
// around instead of a bare net.Addr.
type NetAddress struct {
	// IdentityKey is the advertised static public key of the node.
	IdentityKey *btcec.PublicKey

	// Address is the network address -- host and port -- of the node.
	Address net.Addr
}

// String returns the pubkey@host:port representation used in logs.
func (n *NetAddress) String() string {
	if n.IdentityKey == nil {
		return n.Address.String()
	}
	return hex.EncodeToString(n.IdentityKey.SerializeCompressed()) + "@" + n.Address.String()
}

// Network implements net.Addr, deferring to the wrapped address, so a
// NetAddress can be handed directly to the connmgr as a ConnReq.Addr and
// later recovered by the dialer that needs the identity key alongside it.
func (n *NetAddress) Network() string {
	return n.Address.Network()
}
