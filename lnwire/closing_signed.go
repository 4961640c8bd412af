package lnwire

import "io"

// ClosingSigned proposes a closing transaction fee and signs the
// resulting closing transaction; the two sides iterate this until they
// converge on a fee both signatures agree with.
type ClosingSigned struct {
	ChanID   ChannelID
	FeeSatoshis Satoshi
	Signature Sig
}

func (msg *ClosingSigned) Decode(r io.Reader) error {
	return readElements(r,
		(*[32]byte)(&msg.ChanID),
		&msg.FeeSatoshis,
		&msg.Signature,
	)
}

func (msg *ClosingSigned) Encode(w io.Writer) error {
	return writeElements(w,
		[32]byte(msg.ChanID),
		msg.FeeSatoshis,
		msg.Signature,
	)
}

func (msg *ClosingSigned) MsgType() MessageType {
	return MsgClosingSigned
}
