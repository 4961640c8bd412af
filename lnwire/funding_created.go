package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// FundingCreated is the initiator's reply to AcceptChannel: the funding
// transaction's outpoint, plus a signature over the responder's version
// of the first commitment transaction.
type FundingCreated struct {
	PendingChannelID ChannelID
	FundingTxid      chainhash.Hash
	FundingOutputIdx uint16
	CommitSig        Sig
}

func (msg *FundingCreated) Decode(r io.Reader) error {
	return readElements(r,
		(*[32]byte)(&msg.PendingChannelID),
		&msg.FundingTxid,
		&msg.FundingOutputIdx,
		&msg.CommitSig,
	)
}

func (msg *FundingCreated) Encode(w io.Writer) error {
	return writeElements(w,
		[32]byte(msg.PendingChannelID),
		msg.FundingTxid,
		msg.FundingOutputIdx,
		msg.CommitSig,
	)
}

func (msg *FundingCreated) MsgType() MessageType {
	return MsgFundingCreated
}
