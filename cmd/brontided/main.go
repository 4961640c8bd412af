// Command brontided is a minimal wiring example around this module's
// transport, onion, and commitment-transaction core: it accepts and
// maintains brontide connections and answers Ping/Init on each, but stops
// short of a full node (no wallet, no channel state machine, no gossip).
package main

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/brontidewire/lncore/brontide"
	"github.com/brontidewire/lncore/build"
	"github.com/brontidewire/lncore/connmgr"
	"github.com/brontidewire/lncore/lnwire"
	"github.com/brontidewire/lncore/peer"
	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btclog"
	flags "github.com/jessevdk/go-flags"
)

var (
	logWriter  = &build.LogWriter{}
	backendLog = btclog.NewBackend(logWriter)

	mainLog = build.NewSubLogger("MAIN", backendLog)
	cmgrLog = build.NewSubLogger("CMGR", backendLog)
	peerLog = build.NewSubLogger("PEER", backendLog)
)

func init() {
	connmgr.UseLogger(cmgrLog)
	peer.UseLogger(peerLog)
}

func main() {
	if err := run(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logWriter.RotatorPipe = os.Stdout
	level, _ := btclog.LevelFromString(cfg.LogLevel)
	mainLog.SetLevel(level)
	cmgrLog.SetLevel(level)
	peerLog.SetLevel(level)

	staticKey, err := loadOrCreateStaticKey(cfg.KeyFile)
	if err != nil {
		return fmt.Errorf("unable to load static key: %v", err)
	}
	mainLog.Infof("Node identity: %x", staticKey.PubKey().SerializeCompressed())

	tcpListener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("unable to listen on %v: %v", cfg.ListenAddr, err)
	}
	brontideListener := brontide.NewListener(staticKey, tcpListener)

	mgr, err := connmgr.New(connmgr.Config{
		LocalStatic:    staticKey,
		Listeners:      []net.Listener{brontideListener},
		TargetOutbound: 8,
		RetryDuration:  5 * time.Second,
		PeerConfig:     peerConfig,
	})
	if err != nil {
		return fmt.Errorf("unable to create connection manager: %v", err)
	}

	mgr.Start()
	defer mgr.Stop()

	mainLog.Infof("Listening on %v", cfg.ListenAddr)

	for _, target := range cfg.ConnectPeer {
		addr, err := parsePeerAddr(target)
		if err != nil {
			mainLog.Errorf("Skipping --connect %v: %v", target, err)
			continue
		}
		if err := mgr.ConnectToPeer(addr, true); err != nil {
			mainLog.Errorf("Unable to connect to %v: %v", target, err)
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt

	mainLog.Infof("Shutting down")
	return nil
}

// peerConfig builds the per-connection peer.Config shared by every
// connection this daemon accepts or dials.
func peerConfig() peer.Config {
	localFeatures := lnwire.NewRawFeatureVector()

	return peer.Config{
		LocalFeatures: localFeatures,
		Consumers: map[lnwire.MessageType]peer.Consumer{
			lnwire.MsgError: peer.ConsumerFunc(logRemoteError),
		},
	}
}

func logRemoteError(p *peer.Peer, msg lnwire.Message) error {
	errMsg := msg.(*lnwire.Error)
	peerLog.Warnf("Received error from %v: %s", p, errMsg.Data)
	return nil
}

// parsePeerAddr parses a pubkey@host:port string, as accepted by --connect.
func parsePeerAddr(s string) (*lnwire.NetAddress, error) {
	parts := strings.SplitN(s, "@", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected pubkey@host:port, got %q", s)
	}

	pubKey, err := parsePubKeyHex(parts[0])
	if err != nil {
		return nil, err
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", parts[1])
	if err != nil {
		return nil, err
	}

	return &lnwire.NetAddress{IdentityKey: pubKey, Address: tcpAddr}, nil
}

func parsePubKeyHex(s string) (*btcec.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return btcec.ParsePubKey(raw, btcec.S256())
}
