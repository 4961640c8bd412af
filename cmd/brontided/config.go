package main

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/btcsuite/btcd/btcec"
	flags "github.com/jessevdk/go-flags"
)

const defaultLogLevel = "info"

// config holds every flag brontided accepts. It deliberately stays small:
// there is no wallet, no chain backend, and no RPC surface to configure.
type config struct {
	ListenAddr string `long:"listen" description:"host:port to accept inbound connections on" default:"0.0.0.0:9735"`

	KeyFile string `long:"keyfile" description:"path to a hex-encoded 32-byte static private key; generated and written here if missing" default:"brontide.key"`

	ConnectPeer []string `long:"connect" description:"pubkey@host:port of a peer to maintain a persistent outbound connection to"`

	LogLevel string `long:"loglevel" description:"debug|info|warn|error|critical" default:"info"`
}

// loadConfig parses command-line flags into a config with its defaults
// already applied by the struct tags above.
func loadConfig() (*config, error) {
	cfg := config{LogLevel: defaultLogLevel}

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadOrCreateStaticKey reads a hex-encoded private key from path, creating
// a fresh one and persisting it there if the file doesn't exist yet.
func loadOrCreateStaticKey(path string) (*btcec.PrivateKey, error) {
	raw, err := ioutil.ReadFile(path)
	if err == nil {
		keyBytes, err := hex.DecodeString(string(raw))
		if err != nil {
			return nil, fmt.Errorf("malformed key file %v: %v", path, err)
		}
		priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), keyBytes)
		return priv, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	priv, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, err
	}

	encoded := hex.EncodeToString(priv.Serialize())
	if err := ioutil.WriteFile(path, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("unable to persist new static key: %v", err)
	}

	return priv, nil
}
