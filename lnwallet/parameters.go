package lnwallet

import (
	"github.com/btcsuite/btcutil"
	"github.com/btcsuite/btcwallet/wallet/txrules"
)

const (
	// P2WPKHSize is the length in bytes of a p2wkh output script.
	P2WPKHSize = 22

	// P2WSHSize is the length in bytes of a p2wsh output script.
	P2WSHSize = 34
)

// DefaultDustLimit is used to calculate the dust HTLC amount which will be
// sent back to a channel party rather than included as its own output on
// the commitment transaction.
func DefaultDustLimit() btcutil.Amount {
	return txrules.GetDustThreshold(P2WSHSize, txrules.DefaultRelayFeePerKb)
}
