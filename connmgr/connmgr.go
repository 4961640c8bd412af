// Package connmgr wires github.com/btcsuite/btcd/connmgr's dial/retry/
// backoff machinery to brontide-authenticated connections, and keeps the
// single-connection-per-pubkey invariant daemon/server.go enforces: when
// both sides dial each other at once, the connection from the node with the
// "larger" identity key is dropped.
package connmgr

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/brontidewire/lncore/brontide"
	"github.com/brontidewire/lncore/lnwire"
	"github.com/brontidewire/lncore/peer"
	"github.com/btcsuite/btcd/btcec"
	btcdconnmgr "github.com/btcsuite/btcd/connmgr"
	"github.com/btcsuite/btclog"
)

// log is this package's logger, silent until UseLogger is called.
var log = btclog.Disabled

// UseLogger sets the package-wide logger for connmgr.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// Config parameterizes a Manager.
type Config struct {
	// LocalStatic is this node's static private key, used both to answer
	// inbound handshakes and to dial out.
	LocalStatic *btcec.PrivateKey

	// Listeners are the addresses to accept inbound connections on. May
	// be empty for an outbound-only node.
	Listeners []net.Listener

	// TargetOutbound is the number of outbound peers the underlying
	// connmgr will try to maintain via its connection requests.
	TargetOutbound uint32

	// RetryDuration is the base backoff the underlying connmgr waits
	// between dial attempts for a given ConnReq.
	RetryDuration time.Duration

	// PeerConfig builds the per-connection Config handed to peer.NewPeer
	// once a handshake completes.
	PeerConfig func() peer.Config
}

// Manager owns the set of active peers, keyed by compressed pubkey, and the
// underlying btcd connmgr responsible for inbound accepts and outbound
// dial/retry.
type Manager struct {
	cfg Config

	mu            sync.Mutex
	peersByPub    map[string]*peer.Peer
	inboundPeers  map[string]*peer.Peer
	outboundPeers map[string]*peer.Peer
	persistent    map[string][]*btcdconnmgr.ConnReq

	cmgr *btcdconnmgr.ConnManager
}

// New constructs a Manager and the underlying btcd connmgr, but does not
// start accepting or dialing until Start is called.
func New(cfg Config) (*Manager, error) {
	m := &Manager{
		cfg:           cfg,
		peersByPub:    make(map[string]*peer.Peer),
		inboundPeers:  make(map[string]*peer.Peer),
		outboundPeers: make(map[string]*peer.Peer),
		persistent:    make(map[string][]*btcdconnmgr.ConnReq),
	}

	cmgr, err := btcdconnmgr.New(&btcdconnmgr.Config{
		Listeners:      cfg.Listeners,
		OnAccept:       m.inboundConnected,
		RetryDuration:  cfg.RetryDuration,
		TargetOutbound: cfg.TargetOutbound,
		Dial:           m.noiseDial,
		OnConnection:   m.outboundConnected,
	})
	if err != nil {
		return nil, err
	}
	m.cmgr = cmgr

	return m, nil
}

// Start begins accepting inbound connections and servicing outbound dial
// requests.
func (m *Manager) Start() {
	m.cmgr.Start()
}

// Stop shuts down the underlying connmgr and disconnects every active peer.
func (m *Manager) Stop() {
	m.cmgr.Stop()

	m.mu.Lock()
	peers := make([]*peer.Peer, 0, len(m.peersByPub))
	for _, p := range m.peersByPub {
		peers = append(peers, p)
	}
	m.mu.Unlock()

	for _, p := range peers {
		p.Disconnect(fmt.Errorf("connmgr: shutting down"))
	}
}

// noiseDial performs the Noise_XK handshake as initiator over a freshly
// dialed TCP socket, satisfying btcd connmgr's Dial signature. addr must be
// the *lnwire.NetAddress passed in as the ConnReq's Addr, since the
// identity key it carries is what the handshake authenticates against.
func (m *Manager) noiseDial(addr net.Addr) (net.Conn, error) {
	lnAddr, ok := addr.(*lnwire.NetAddress)
	if !ok {
		return nil, fmt.Errorf("connmgr: dial address %v is not a NetAddress", addr)
	}
	return brontide.Dial(m.cfg.LocalStatic, lnAddr.IdentityKey, lnAddr.Address.String(), nil)
}

// ConnectToPeer requests an outbound connection to addr. A permanent request
// is handed to the underlying connmgr, which retries with backoff and keeps
// redialing if the peer later disconnects; a one-shot request dials once and
// reports failure directly.
func (m *Manager) ConnectToPeer(addr *lnwire.NetAddress, permanent bool) error {
	pubStr := pubKeyStr(addr.IdentityKey)

	m.mu.Lock()
	if _, ok := m.peersByPub[pubStr]; ok {
		m.mu.Unlock()
		return fmt.Errorf("connmgr: already connected to %x",
			addr.IdentityKey.SerializeCompressed())
	}
	m.mu.Unlock()

	connReq := &btcdconnmgr.ConnReq{
		Addr:      addr,
		Permanent: permanent,
	}

	if permanent {
		m.mu.Lock()
		m.persistent[pubStr] = append(m.persistent[pubStr], connReq)
		m.mu.Unlock()

		go m.cmgr.Connect(connReq)
		return nil
	}

	errChan := make(chan error, 1)
	go func() {
		conn, err := m.noiseDial(addr)
		if err != nil {
			errChan <- err
			return
		}
		close(errChan)
		m.outboundConnected(nil, conn)
	}()

	return <-errChan
}

// inboundConnected runs the responder handshake over an accepted TCP
// connection (via brontide.Listener, whose Accept already returns a
// handshaken *brontide.Conn) and finalizes the new peer, or drops it if a
// duplicate connection to the same pubkey should be kept instead.
func (m *Manager) inboundConnected(conn net.Conn) {
	brontideConn, ok := conn.(*brontide.Conn)
	if !ok {
		conn.Close()
		return
	}

	nodePub := brontideConn.RemotePub()
	pubStr := pubKeyStr(nodePub)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.outboundPeers[pubStr]; ok {
		log.Debugf("Already have outbound connection to %x, dropping inbound",
			nodePub.SerializeCompressed())
		conn.Close()
		return
	}

	if existing, ok := m.peersByPub[pubStr]; ok {
		localPub := m.localIdentity()
		if !shouldDropLocalConnection(localPub, nodePub) {
			log.Warnf("Inbound connection from %x already connected, dropping",
				nodePub.SerializeCompressed())
			conn.Close()
			return
		}
		m.removePeerLocked(existing)
	}

	m.finalizeConnection(brontideConn, nil, true)
}

// outboundConnected finalizes a successful outbound dial, resolving the
// same duplicate-connection race as inboundConnected but with the opposite
// tie-break direction.
func (m *Manager) outboundConnected(connReq *btcdconnmgr.ConnReq, conn net.Conn) {
	brontideConn, ok := conn.(*brontide.Conn)
	if !ok {
		conn.Close()
		return
	}

	nodePub := brontideConn.RemotePub()
	pubStr := pubKeyStr(nodePub)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.inboundPeers[pubStr]; ok {
		log.Debugf("Already have inbound connection from %x, dropping outbound",
			nodePub.SerializeCompressed())
		conn.Close()
		return
	}

	if existing, ok := m.peersByPub[pubStr]; ok {
		localPub := m.localIdentity()
		if shouldDropLocalConnection(localPub, nodePub) {
			log.Warnf("Outbound connection to %x already connected, dropping",
				nodePub.SerializeCompressed())
			conn.Close()
			return
		}
		m.removePeerLocked(existing)
	}

	m.finalizeConnection(brontideConn, connReq, false)
}

// finalizeConnection builds a peer.Peer around a handshaken connection,
// starts it, and indexes it by pubkey. Must be called with mu held.
func (m *Manager) finalizeConnection(conn *brontide.Conn, connReq *btcdconnmgr.ConnReq, inbound bool) {
	nodePub := conn.RemotePub()
	pubStr := pubKeyStr(nodePub)

	addr := &lnwire.NetAddress{IdentityKey: nodePub, Address: conn.RemoteAddr()}

	cfg := m.cfg.PeerConfig()
	cfg.Inbound = inbound

	p := peer.NewPeer(conn, addr, cfg)
	if err := p.Start(); err != nil {
		log.Errorf("Unable to start peer %v: %v", addr, err)
		conn.Close()
		if connReq != nil {
			m.cmgr.Remove(connReq.ID())
		}
		return
	}

	m.peersByPub[pubStr] = p
	if inbound {
		m.inboundPeers[pubStr] = p
	} else {
		m.outboundPeers[pubStr] = p
	}

	log.Infof("Finalized connection to %v, inbound=%v", addr, inbound)
}

// removePeerLocked disconnects and unindexes p. Must be called with mu held.
func (m *Manager) removePeerLocked(p *peer.Peer) {
	pubStr := pubKeyStr(p.IdentityKey())

	p.Disconnect(fmt.Errorf("connmgr: superseded by a newer connection"))

	delete(m.peersByPub, pubStr)
	delete(m.inboundPeers, pubStr)
	delete(m.outboundPeers, pubStr)
}

// DisconnectPeer tears down any active connection to pubKey.
func (m *Manager) DisconnectPeer(pubKey *btcec.PublicKey) error {
	pubStr := pubKeyStr(pubKey)

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.peersByPub[pubStr]
	if !ok {
		return fmt.Errorf("connmgr: no connection to %x", pubKey.SerializeCompressed())
	}

	m.removePeerLocked(p)
	return nil
}

// Peers returns a snapshot of every currently connected peer.
func (m *Manager) Peers() []*peer.Peer {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*peer.Peer, 0, len(m.peersByPub))
	for _, p := range m.peersByPub {
		out = append(out, p)
	}
	return out
}

// localIdentity exposes the manager's own identity key, used on both sides
// of the duplicate-connection tie-break.
func (m *Manager) localIdentity() *btcec.PublicKey {
	return m.cfg.LocalStatic.PubKey()
}

// shouldDropLocalConnection decides which side of a simultaneous connect
// loses: the side whose pubkey sorts greater drops its attempt, so both
// peers converge on keeping the same single connection.
func shouldDropLocalConnection(local, remote *btcec.PublicKey) bool {
	return bytes.Compare(local.SerializeCompressed(), remote.SerializeCompressed()) > 0
}

func pubKeyStr(pub *btcec.PublicKey) string {
	return string(pub.SerializeCompressed())
}
