package lnwire

import "io"

// UpdateFulfillHTLC releases the preimage for a previously added HTLC,
// claiming its value.
type UpdateFulfillHTLC struct {
	ChanID          ChannelID
	ID              uint64
	PaymentPreimage [32]byte
}

func (msg *UpdateFulfillHTLC) Decode(r io.Reader) error {
	return readElements(r,
		(*[32]byte)(&msg.ChanID),
		&msg.ID,
		&msg.PaymentPreimage,
	)
}

func (msg *UpdateFulfillHTLC) Encode(w io.Writer) error {
	return writeElements(w,
		[32]byte(msg.ChanID),
		msg.ID,
		msg.PaymentPreimage,
	)
}

func (msg *UpdateFulfillHTLC) MsgType() MessageType {
	return MsgUpdateFulfillHTLC
}
