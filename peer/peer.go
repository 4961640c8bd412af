// Package peer drives a single brontide connection once its handshake has
// completed: it exchanges Init messages, dispatches decoded wire messages
// to registered consumers, answers Ping with Pong, and produces an Error
// frame when a consumer reports a policy failure.
package peer

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/brontidewire/lncore/brontide"
	"github.com/brontidewire/lncore/lnwire"
	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btclog"
	"github.com/go-errors/errors"
)

// log is this package's logger, silent until UseLogger is called.
var log = btclog.Disabled

// UseLogger sets the package-wide logger for peer.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// Consumer handles one decoded wire message for a Peer. Returning a non-nil
// error is treated as a policy failure: the peer sends an Error frame
// carrying the message and disconnects.
type Consumer interface {
	// HandleMessage processes msg, received from p.
	HandleMessage(p *Peer, msg lnwire.Message) error
}

// ConsumerFunc adapts a plain function to the Consumer interface.
type ConsumerFunc func(p *Peer, msg lnwire.Message) error

// HandleMessage implements Consumer.
func (f ConsumerFunc) HandleMessage(p *Peer, msg lnwire.Message) error {
	return f(p, msg)
}

// Config carries everything a Peer needs beyond the connection itself.
type Config struct {
	// LocalFeatures is the feature vector advertised in this side's Init
	// message.
	LocalFeatures *lnwire.RawFeatureVector

	// Consumers dispatches by message type. A message whose type has no
	// registered consumer is logged and dropped.
	Consumers map[lnwire.MessageType]Consumer

	// Inbound is true if conn was accepted rather than dialed.
	Inbound bool
}

// Peer owns one brontide.Conn and the goroutines that read, write, and
// dispatch wire messages over it.
type Peer struct {
	started  int32
	stopping int32

	conn *brontide.Conn
	cfg  Config

	addr *lnwire.NetAddress

	remoteFeatures *lnwire.FeatureVector

	outgoingQueue chan outgoingMsg

	wg   sync.WaitGroup
	quit chan struct{}
}

type outgoingMsg struct {
	msg     lnwire.Message
	errChan chan error
}

// NewPeer wraps an already-handshaken brontide.Conn.
func NewPeer(conn *brontide.Conn, addr *lnwire.NetAddress, cfg Config) *Peer {
	return &Peer{
		conn:          conn,
		cfg:           cfg,
		addr:          addr,
		outgoingQueue: make(chan outgoingMsg),
		quit:          make(chan struct{}),
	}
}

// Start performs the Init handshake and launches the peer's read and write
// pumps. It blocks until Init has been exchanged.
func (p *Peer) Start() error {
	if !atomic.CompareAndSwapInt32(&p.started, 0, 1) {
		return nil
	}

	if err := p.exchangeInit(); err != nil {
		return errors.Wrap(err, 1)
	}

	p.wg.Add(2)
	go p.readHandler()
	go p.writeHandler()

	return nil
}

// exchangeInit sends our Init message and blocks for the remote's, per
// spec.md's requirement that Init be the first message on every connection.
func (p *Peer) exchangeInit() error {
	localInit := lnwire.NewInitMessage(lnwire.NewRawFeatureVector(), p.cfg.LocalFeatures)
	if err := p.writeMessage(localInit); err != nil {
		return fmt.Errorf("peer: sending init: %v", err)
	}

	payload, err := p.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("peer: reading init: %v", err)
	}

	msg, _, err := lnwire.ReadMessage(payload)
	if err != nil {
		return err
	}

	remoteInit, ok := msg.(*lnwire.Init)
	if !ok {
		return fmt.Errorf("peer: expected init, got %T", msg)
	}

	p.remoteFeatures = lnwire.NewFeatureVector(
		remoteInit.Features, lnwire.LocalFeatures,
	)

	if unknown := p.remoteFeatures.UnknownRequiredFeatures(); len(unknown) > 0 {
		return fmt.Errorf("peer: remote requires unknown features: %v", unknown)
	}

	return nil
}

// readHandler pulls frames off the wire, decodes them, and dispatches to
// the registered consumer, answering Ping and tearing the connection down
// on a consumer-reported policy failure.
func (p *Peer) readHandler() {
	defer p.wg.Done()
	defer p.Disconnect(nil)

	for {
		payload, err := p.conn.ReadMessage()
		if err != nil {
			log.Debugf("Reading message from %v failed: %v", p, err)
			return
		}

		msg, _, err := lnwire.ReadMessage(payload)
		if err != nil {
			log.Errorf("Malformed message from %v: %v", p, err)
			continue
		}

		if ping, ok := msg.(*lnwire.Ping); ok {
			p.queueMessage(lnwire.NewPong(ping.NumPongBytes), nil)
			continue
		}
		if _, ok := msg.(*lnwire.Pong); ok {
			continue
		}

		consumer, ok := p.cfg.Consumers[msg.MsgType()]
		if !ok {
			log.Debugf("No consumer registered for %v from %v, dropping",
				msg.MsgType(), p)
			continue
		}

		if err := consumer.HandleMessage(p, msg); err != nil {
			log.Warnf("Policy failure from %v: %v", p, err)
			p.sendError(err)
			return
		}
	}
}

// sendError synchronously writes an Error frame best-effort before the
// connection is torn down, going through writeHandler like every other
// outgoing message.
func (p *Peer) sendError(cause error) {
	errMsg := lnwire.NewError([]byte(cause.Error()))
	errChan := make(chan error, 1)
	p.queueMessage(errMsg, errChan)
	if writeErr := <-errChan; writeErr != nil {
		log.Debugf("Unable to send error to %v: %v", p, writeErr)
	}
}

// writeHandler serializes Peer.SendMessage requests one at a time onto the
// wire, since brontide.Conn's framing requires a single writer.
func (p *Peer) writeHandler() {
	defer p.wg.Done()

	for {
		select {
		case out := <-p.outgoingQueue:
			err := p.writeMessage(out.msg)
			if out.errChan != nil {
				out.errChan <- err
			}
			if err != nil {
				log.Errorf("Writing message to %v failed: %v", p, err)
				go p.Disconnect(nil)
				return
			}

		case <-p.quit:
			return
		}
	}
}

func (p *Peer) writeMessage(msg lnwire.Message) error {
	payload, err := lnwire.WriteMessage(msg, nil)
	if err != nil {
		return err
	}
	return p.conn.WriteMessage(payload)
}

func (p *Peer) queueMessage(msg lnwire.Message, errChan chan error) {
	select {
	case p.outgoingQueue <- outgoingMsg{msg, errChan}:
	case <-p.quit:
		if errChan != nil {
			errChan <- fmt.Errorf("peer: shutting down")
		}
	}
}

// SendMessage implements lnpeer.Peer. When sync is true it blocks until
// every message has either been written or the peer has shut down.
func (p *Peer) SendMessage(sync bool, msgs ...lnwire.Message) error {
	var errChan chan error
	if sync {
		errChan = make(chan error, 1)
	}

	for _, msg := range msgs {
		p.queueMessage(msg, errChan)
		if sync {
			if err := <-errChan; err != nil {
				return err
			}
		}
	}
	return nil
}

// PubKey implements lnpeer.Peer.
func (p *Peer) PubKey() [33]byte {
	var pub [33]byte
	copy(pub[:], p.addr.IdentityKey.SerializeCompressed())
	return pub
}

// IdentityKey implements lnpeer.Peer.
func (p *Peer) IdentityKey() *btcec.PublicKey {
	return p.addr.IdentityKey
}

// Address implements lnpeer.Peer.
func (p *Peer) Address() net.Addr {
	return p.addr.Address
}

// QuitSignal implements lnpeer.Peer.
func (p *Peer) QuitSignal() <-chan struct{} {
	return p.quit
}

// Inbound reports whether this connection was accepted rather than dialed.
func (p *Peer) Inbound() bool {
	return p.cfg.Inbound
}

// String returns the pubkey@address identity used in log lines.
func (p *Peer) String() string {
	if p.cfg.Inbound {
		return p.addr.String() + " (inbound)"
	}
	return p.addr.String() + " (outbound)"
}

// Disconnect tears down the underlying connection and stops this peer's
// goroutines. Safe to call more than once and from any goroutine; cause may
// be nil when the disconnect originates from the remote side closing first.
func (p *Peer) Disconnect(cause error) {
	if !atomic.CompareAndSwapInt32(&p.stopping, 0, 1) {
		return
	}

	if cause != nil {
		log.Infof("Disconnecting %v: %v", p, cause)
	}

	close(p.quit)
	p.conn.Close()
}

// WaitForDisconnect blocks until both the read and write pumps have exited.
func (p *Peer) WaitForDisconnect() {
	p.wg.Wait()
}
