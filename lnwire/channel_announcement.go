package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ChannelAnnouncement proves a channel exists by carrying four
// signatures: each node's identity key signs the message, and each
// node's funding key signs the message, binding the on-chain output to
// the two identities gossiping about it.
type ChannelAnnouncement struct {
	NodeSig1       Sig
	NodeSig2       Sig
	BitcoinSig1    Sig
	BitcoinSig2    Sig
	Features       *RawFeatureVector
	ChainHash      chainhash.Hash
	ShortChannelID ShortChannelID
	NodeID1        *btcec.PublicKey
	NodeID2        *btcec.PublicKey
	BitcoinKey1    *btcec.PublicKey
	BitcoinKey2    *btcec.PublicKey
}

func (msg *ChannelAnnouncement) Decode(r io.Reader) error {
	if err := readElements(r,
		&msg.NodeSig1,
		&msg.NodeSig2,
		&msg.BitcoinSig1,
		&msg.BitcoinSig2,
	); err != nil {
		return err
	}

	msg.Features = NewRawFeatureVector()
	if err := msg.Features.Decode(r); err != nil {
		return err
	}

	return readElements(r,
		&msg.ChainHash,
		&msg.ShortChannelID,
		&msg.NodeID1,
		&msg.NodeID2,
		&msg.BitcoinKey1,
		&msg.BitcoinKey2,
	)
}

func (msg *ChannelAnnouncement) Encode(w io.Writer) error {
	if err := writeElements(w,
		msg.NodeSig1,
		msg.NodeSig2,
		msg.BitcoinSig1,
		msg.BitcoinSig2,
	); err != nil {
		return err
	}

	if msg.Features == nil {
		msg.Features = NewRawFeatureVector()
	}
	if err := msg.Features.Encode(w); err != nil {
		return err
	}

	return writeElements(w,
		msg.ChainHash,
		msg.ShortChannelID,
		msg.NodeID1,
		msg.NodeID2,
		msg.BitcoinKey1,
		msg.BitcoinKey2,
	)
}

func (msg *ChannelAnnouncement) MsgType() MessageType {
	return MsgChannelAnnouncement
}
