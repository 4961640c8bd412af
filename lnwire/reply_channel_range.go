package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ReplyChannelRange answers a QueryChannelRange, possibly across several
// messages when Complete is false, carrying the matching short channel
// ids as an UncompressedData vector (spec.md ยง4.E).
type ReplyChannelRange struct {
	ChainHash        chainhash.Hash
	FirstBlockHeight uint32
	NumBlocks        uint32
	Complete         uint8
	ShortChanIDs     []ShortChannelID
}

func (msg *ReplyChannelRange) Decode(r io.Reader) error {
	if err := readElements(r,
		&msg.ChainHash,
		&msg.FirstBlockHeight,
		&msg.NumBlocks,
		&msg.Complete,
	); err != nil {
		return err
	}

	ids, err := readUncompressedChanIDs(r)
	if err != nil {
		return err
	}
	msg.ShortChanIDs = ids
	return nil
}

func (msg *ReplyChannelRange) Encode(w io.Writer) error {
	if err := writeElements(w,
		msg.ChainHash,
		msg.FirstBlockHeight,
		msg.NumBlocks,
		msg.Complete,
	); err != nil {
		return err
	}

	return writeUncompressedChanIDs(w, msg.ShortChanIDs)
}

func (msg *ReplyChannelRange) MsgType() MessageType {
	return MsgReplyChannelRange
}
