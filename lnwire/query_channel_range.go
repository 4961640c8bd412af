package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// QueryChannelRange asks a peer for every short channel id it knows of
// that opened within the given block range, the first step of the
// initial gossip sync per spec.md component E.
type QueryChannelRange struct {
	ChainHash       chainhash.Hash
	FirstBlockHeight uint32
	NumBlocks        uint32
}

func (msg *QueryChannelRange) Decode(r io.Reader) error {
	return readElements(r,
		&msg.ChainHash,
		&msg.FirstBlockHeight,
		&msg.NumBlocks,
	)
}

func (msg *QueryChannelRange) Encode(w io.Writer) error {
	return writeElements(w,
		msg.ChainHash,
		msg.FirstBlockHeight,
		msg.NumBlocks,
	)
}

func (msg *QueryChannelRange) MsgType() MessageType {
	return MsgQueryChannelRange
}
