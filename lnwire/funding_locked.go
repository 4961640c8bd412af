package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec"
)

// FundingLocked is sent once a side sees enough confirmations on the
// funding transaction, handing the peer the per-commitment point it will
// need to build the next commitment.
type FundingLocked struct {
	ChanID               ChannelID
	NextPerCommitmentPoint *btcec.PublicKey
}

func (msg *FundingLocked) Decode(r io.Reader) error {
	return readElements(r,
		(*[32]byte)(&msg.ChanID),
		&msg.NextPerCommitmentPoint,
	)
}

func (msg *FundingLocked) Encode(w io.Writer) error {
	return writeElements(w,
		[32]byte(msg.ChanID),
		msg.NextPerCommitmentPoint,
	)
}

func (msg *FundingLocked) MsgType() MessageType {
	return MsgFundingLocked
}
