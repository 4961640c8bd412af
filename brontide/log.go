package brontide

import "github.com/btcsuite/btclog"

// log is the package-wide logger used by the handshake and transport code.
// It is disabled by default and wired up via UseLogger by the daemon.
var log = btclog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}
