package lnwire

import (
	"io"

	"github.com/btcsuite/btcd/btcec"
)

// RevokeAndAck surrenders the sender's just-superseded commitment
// transaction by revealing its per-commitment secret, and hands over the
// next per-commitment point the peer will need.
type RevokeAndAck struct {
	ChanID             ChannelID
	Revocation         [32]byte
	NextPerCommitPoint *btcec.PublicKey
}

func (msg *RevokeAndAck) Decode(r io.Reader) error {
	return readElements(r,
		(*[32]byte)(&msg.ChanID),
		&msg.Revocation,
		&msg.NextPerCommitPoint,
	)
}

func (msg *RevokeAndAck) Encode(w io.Writer) error {
	return writeElements(w,
		[32]byte(msg.ChanID),
		msg.Revocation,
		msg.NextPerCommitPoint,
	)
}

func (msg *RevokeAndAck) MsgType() MessageType {
	return MsgRevokeAndAck
}
