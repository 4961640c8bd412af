package lnwire

import "io"

// FundingSigned is the responder's reply to FundingCreated: a signature
// over the initiator's version of the first commitment transaction. Once
// the initiator has this, both sides hold a fully signed, broadcastable
// commitment.
type FundingSigned struct {
	ChanID    ChannelID
	CommitSig Sig
}

func (msg *FundingSigned) Decode(r io.Reader) error {
	return readElements(r,
		(*[32]byte)(&msg.ChanID),
		&msg.CommitSig,
	)
}

func (msg *FundingSigned) Encode(w io.Writer) error {
	return writeElements(w,
		[32]byte(msg.ChanID),
		msg.CommitSig,
	)
}

func (msg *FundingSigned) MsgType() MessageType {
	return MsgFundingSigned
}
