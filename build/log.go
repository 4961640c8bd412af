// Package build provides the logging plumbing shared by every subsystem in
// this module: a process-wide io.Writer that can be pointed at a rotating
// log file after flags are parsed, and a helper for minting per-subsystem
// btclog.Logger instances from a single backend.
package build

import (
	"io"
	"sync"

	"github.com/btcsuite/btclog"
)

// LogWriter is an io.Writer that multiplexes across zero or more underlying
// writers. It exists so that packages can obtain a btclog.Backend before the
// real log file (the RotatorPipe) is known; writes prior to that point are
// silently dropped rather than buffered.
type LogWriter struct {
	mu sync.RWMutex

	// RotatorPipe is the eventual destination of log output, normally a
	// pipe to a log file rotator established during daemon startup.
	RotatorPipe io.Writer
}

// Write implements io.Writer.
func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.RLock()
	dst := w.RotatorPipe
	w.mu.RUnlock()

	if dst == nil {
		return len(p), nil
	}
	return dst.Write(p)
}

// NewSubLogger creates a new btclog.Logger for the given subsystem tag,
// backed by the shared backend. Every package in this module that wants to
// log exposes a package-level UseLogger(btclog.Logger) so the final wiring
// of tag -> logger lives in one place (cmd/brontided).
func NewSubLogger(tag string, backend *btclog.Backend) btclog.Logger {
	return backend.Logger(tag)
}
